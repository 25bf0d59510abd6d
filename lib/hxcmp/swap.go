package hxcmp

// SwapMode is an hx-swap strategy. The default is SwapOuter.
type SwapMode string

const (
	SwapOuter       SwapMode = "outerHTML"
	SwapInner       SwapMode = "innerHTML"
	SwapBeforeEnd   SwapMode = "beforeend"
	SwapAfterEnd    SwapMode = "afterend"
	SwapBeforeBegin SwapMode = "beforebegin"
	SwapAfterBegin  SwapMode = "afterbegin"
	// SwapDelete removes the target; the response body is ignored.
	SwapDelete SwapMode = "delete"
	// SwapNone discards the response. Headers such as HX-Trigger still apply.
	SwapNone SwapMode = "none"
)
