package types

type IndicatorType string

const (
	IndicatorTypeSMA IndicatorType = "sma"
	IndicatorTypeRSI IndicatorType = "rsi"
)

// IndicatorWarmup marks bars where an indicator has no value yet.
const IndicatorWarmup = -1.0
