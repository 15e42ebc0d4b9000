package gormstorage

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/battlecode/engine/internal/storage/gorm"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
