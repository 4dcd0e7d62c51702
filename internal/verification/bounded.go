package verification

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/Proton-105/rental-agent/internal/errors"
)

const (
	defaultTimeout    = 10 * time.Second
	unavailableDetail = "verification service unavailable"
)

// Bounded limits every check to a timeout and stops calling a failing
// authority for a while. Failures become unaccepted, Unavailable results.
type Bounded struct {
	next    Gateway
	timeout time.Duration
	breaker *apperrors.CircuitBreaker
	errs    *apperrors.Handler
	log     *slog.Logger
}

func NewBounded(next Gateway, timeout time.Duration, breaker *apperrors.CircuitBreaker, errs *apperrors.Handler, log *slog.Logger) *Bounded {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if breaker == nil {
		breaker = apperrors.NewCircuitBreaker()
	}
	if log == nil {
		log = slog.Default()
	}
	if errs == nil {
		errs = apperrors.NewHandler(log, false)
	}

	return &Bounded{
		next:    next,
		timeout: timeout,
		breaker: breaker,
		errs:    errs,
		log:     log,
	}
}

func (b *Bounded) VerifyBusinessLicense(ctx context.Context, licenseNumber string) (Result, error) {
	return b.call(ctx, "business_license", func(ctx context.Context) (Result, error) {
		return b.next.VerifyBusinessLicense(ctx, licenseNumber)
	})
}

func (b *Bounded) VerifySiteSafety(ctx context.Context, jobAddress, equipmentCategory, weightClass string) (Result, error) {
	return b.call(ctx, "site_safety", func(ctx context.Context) (Result, error) {
		return b.next.VerifySiteSafety(ctx, jobAddress, equipmentCategory, weightClass)
	})
}

func (b *Bounded) VerifyOperatorCredentials(ctx context.Context, operatorLicense, certificationType string) (Result, error) {
	return b.call(ctx, "operator_credentials", func(ctx context.Context) (Result, error) {
		return b.next.VerifyOperatorCredentials(ctx, operatorLicense, certificationType)
	})
}

func (b *Bounded) VerifyInsuranceCoverage(ctx context.Context, policyNumber string, requiredAmount, equipmentValue float64) (Result, error) {
	return b.call(ctx, "insurance_coverage", func(ctx context.Context) (Result, error) {
		return b.next.VerifyInsuranceCoverage(ctx, policyNumber, requiredAmount, equipmentValue)
	})
}

func (b *Bounded) call(ctx context.Context, check string, fn func(context.Context) (Result, error)) (Result, error) {
	var result Result
	err := b.breaker.Call(func() error {
		callCtx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()

		type outcome struct {
			res Result
			err error
		}
		done := make(chan outcome, 1)
		go func() {
			res, err := fn(callCtx)
			done <- outcome{res: res, err: err}
		}()

		select {
		case <-callCtx.Done():
			return apperrors.NewExternalAPIError(check, callCtx.Err())
		case out := <-done:
			if out.err != nil {
				return apperrors.NewExternalAPIError(check, out.err)
			}
			result = out.res
			return nil
		}
	})
	if err != nil {
		b.errs.Handle(ctx, err)
		b.log.Warn("verification unavailable", "check", check)
		return Result{Accepted: false, Detail: unavailableDetail, Unavailable: true}, nil
	}

	return result, nil
}
