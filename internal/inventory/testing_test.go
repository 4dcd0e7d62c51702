package inventory

import (
	"io"
	"log/slog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleInventory() []Equipment {
	return []Equipment{
		{
			ID: "EQ001", Name: "CAT 320 Excavator", Category: "Excavator",
			DailyRate: 400, MaxRate: 600, Status: StatusAvailable,
			OperatorCertRequired: "Heavy Equipment Operator", MinInsurance: 1000000,
			StorageLocation: "Yard A", WeightClass: "Heavy",
		},
		{
			ID: "EQ002", Name: "Toyota 8FGU25 Forklift", Category: "Forklift",
			DailyRate: 150, MaxRate: 220, Status: StatusRented,
			OperatorCertRequired: "Forklift Certification", MinInsurance: 250000,
			StorageLocation: "Warehouse 2", WeightClass: "Medium",
		},
		{
			ID: "EQ003", Name: "JLG 600S Boom Lift", Category: "Aerial Lift",
			DailyRate: 300, MaxRate: 450, Status: StatusAvailable,
			OperatorCertRequired: "Aerial Lift Certification", MinInsurance: 500000,
			StorageLocation: "Yard B", WeightClass: "Medium",
		},
	}
}
