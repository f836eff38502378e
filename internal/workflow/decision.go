package workflow

// Decide applies the final decision table. Pure; no further transitions
// occur once a decision is set.
//
//	no bid, or error count over the ceiling          -> decline
//	bid present but a gate failed or risk score > 5  -> escalate
//	otherwise                                        -> approve
func Decide(hasBid bool, errorCount int, technicalOK, pricingOK bool, riskScore int) string {
	if !hasBid || errorCount > errorCeiling {
		return DecisionDecline
	}
	if !technicalOK || !pricingOK || riskScore > 5 {
		return DecisionEscalate
	}
	return DecisionApprove
}
