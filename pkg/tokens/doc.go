// Package tokens provides coarse token estimation and input length
// validation for admission control.
//
// Estimation is deliberately cheap and approximate: one token per four
// characters of input. The governor corrects the books after the fact
// from actual usage reported by the model call, so the estimate only
// needs to be good enough to refuse obviously oversized requests up
// front.
//
// Callers add an operation-specific envelope on top of the raw estimate
// before asking the governor for admission:
//
//	estimate := est.Estimate(text) + tokens.SummarizeOverhead
//	decision := gov.Admit(estimate, governor.OpCompletion)
package tokens
