package contract

import "fmt"

// Hint keys recognized on Contract.Hints(). String keys are kept at the
// public boundary for compatibility; everywhere internal consumes the typed
// ShipStrategyHint/LocalStrategyHint values parsed once via ParseHint.
const (
	HintInputShipStrategy      = "INPUT_SHIP_STRATEGY"
	HintInputLeftShipStrategy  = "INPUT_LEFT_SHIP_STRATEGY"
	HintInputRightShipStrategy = "INPUT_RIGHT_SHIP_STRATEGY"
	HintLocalStrategy          = "LOCAL_STRATEGY"
)

// ShipStrategyHint is the typed value of a *_SHIP_STRATEGY hint.
type ShipStrategyHint int

const (
	ShipHintNone ShipStrategyHint = iota
	ShipHintRepartitionHash
	ShipHintRepartitionRange
	ShipHintBroadcast
	ShipHintForward
)

// LocalStrategyHint is the typed value of the LOCAL_STRATEGY hint.
type LocalStrategyHint int

const (
	LocalHintNone LocalStrategyHint = iota
	LocalHintSort
	LocalHintCombiningSort
	LocalHintSortBothMerge
	LocalHintSortFirstMerge
	LocalHintSortSecondMerge
	LocalHintMerge
	LocalHintHashBuildFirst
	LocalHintHashBuildSecond
	LocalHintNestedLoopStreamedOuterFirst
	LocalHintNestedLoopStreamedOuterSecond
	LocalHintNestedLoopBlockedOuterFirst
	LocalHintNestedLoopBlockedOuterSecond
)

var shipStrategyHintValues = map[string]ShipStrategyHint{
	"SHIP_REPARTITION_HASH":  ShipHintRepartitionHash,
	"SHIP_REPARTITION_RANGE": ShipHintRepartitionRange,
	"SHIP_BROADCAST":         ShipHintBroadcast,
	"SHIP_FORWARD":           ShipHintForward,
}

var localStrategyHintValues = map[string]LocalStrategyHint{
	"LOCAL_STRATEGY_SORT":                             LocalHintSort,
	"LOCAL_STRATEGY_COMBINING_SORT":                   LocalHintCombiningSort,
	"LOCAL_STRATEGY_SORT_BOTH_MERGE":                   LocalHintSortBothMerge,
	"LOCAL_STRATEGY_SORT_FIRST_MERGE":                  LocalHintSortFirstMerge,
	"LOCAL_STRATEGY_SORT_SECOND_MERGE":                 LocalHintSortSecondMerge,
	"LOCAL_STRATEGY_MERGE":                             LocalHintMerge,
	"LOCAL_STRATEGY_HASH_BUILD_FIRST":                  LocalHintHashBuildFirst,
	"LOCAL_STRATEGY_HASH_BUILD_SECOND":                 LocalHintHashBuildSecond,
	"LOCAL_STRATEGY_NESTEDLOOP_STREAMED_OUTER_FIRST":   LocalHintNestedLoopStreamedOuterFirst,
	"LOCAL_STRATEGY_NESTEDLOOP_STREAMED_OUTER_SECOND":  LocalHintNestedLoopStreamedOuterSecond,
	"LOCAL_STRATEGY_NESTEDLOOP_BLOCKED_OUTER_FIRST":    LocalHintNestedLoopBlockedOuterFirst,
	"LOCAL_STRATEGY_NESTEDLOOP_BLOCKED_OUTER_SECOND":   LocalHintNestedLoopBlockedOuterSecond,
}

// ParseHint parses a raw hint key/value pair into typed enums. An unknown
// key is reported via ok=false so the caller can ignore it with a warning
// (spec.md §7, "Invalid hint value"); an unknown value for a known key
// returns an error.
func ParseHint(key, value string) (isShip bool, ship ShipStrategyHint, local LocalStrategyHint, ok bool, err error) {
	switch key {
	case HintInputShipStrategy, HintInputLeftShipStrategy, HintInputRightShipStrategy:
		v, found := shipStrategyHintValues[value]
		if !found {
			return true, ShipHintNone, LocalHintNone, true, fmt.Errorf("invalid ship strategy hint value %q for key %q", value, key)
		}
		return true, v, LocalHintNone, true, nil
	case HintLocalStrategy:
		v, found := localStrategyHintValues[value]
		if !found {
			return false, ShipHintNone, LocalHintNone, true, fmt.Errorf("invalid local strategy hint value %q for key %q", value, key)
		}
		return false, ShipHintNone, v, true, nil
	default:
		return false, ShipHintNone, LocalHintNone, false, nil
	}
}
