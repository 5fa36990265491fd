// Package capacity derives effective daily production capacity from a shift
// configuration and checks requested quantities against the load already
// committed for a day.
package capacity

import (
	"github.com/shopspring/decimal"

	"github.com/planline-io/planline/internal/model"
)

// EffectiveCapacity returns the usable daily output of a shift configuration
// in whole units: productive minutes times line speed, discounted by the
// expected defect rate and floored.
//
// A configuration whose overhead consumes the whole day yields zero, not an
// error; "no capacity" is a valid answer for a degenerate shift model. The
// defect rate is clamped to [0,1): a rate at or above 1 also yields zero.
func EffectiveCapacity(shift model.ShiftModel) int64 {
	totalMinutes := shift.ShiftsPerDay * shift.MinutesPerShift
	productiveMinutes := totalMinutes - shift.CleanupMinutes - shift.ChangeoverMinutes
	if productiveMinutes <= 0 {
		return 0
	}

	defectRate := shift.DefectRate
	if defectRate.IsNegative() {
		defectRate = decimal.Zero
	}
	yield := decimal.NewFromInt(1).Sub(defectRate)
	if yield.Sign() <= 0 {
		return 0
	}

	gross := decimal.NewFromInt(int64(productiveMinutes)).Mul(shift.SpeedPerMinute)
	effective := gross.Mul(yield).Floor()
	if effective.IsNegative() {
		return 0
	}
	return effective.IntPart()
}
