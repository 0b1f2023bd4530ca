package faultbits

// UpdateFaultStatus is the pure fault-recomputation step shared by every
// fault manager instance (system, power, telemetry). Given the current
// summary, the mask of bits this manager is allowed to raise
// (enableMask), the freshly observed status bits (newStatus), and the two
// masks describing which bits this manager is responsible for
// (affectedWarnInfo, affectedFault), it returns the recomputed summary and
// the subset of bits that changed and are enabled.
//
// Per bit, with s the summary bit and n the newStatus bit: a fault bit
// (affectedFault only) becomes n when s is clear and is cleared when s is
// set, whatever n is; a warning/info bit becomes s XOR n, so it stays set
// while n is clear and is cleared when n reports it again; a bit outside
// both affected masks is cleared.
func UpdateFaultStatus(summary, enableMask, newStatus, affectedWarnInfo, affectedFault Bits) (updatedSummary, changedBits Bits) {
	affectedAll := affectedFault | affectedWarnInfo
	cf := summary
	cfPrime := cf &^ affectedWarnInfo
	newMasked := newStatus & affectedAll
	updatedSummary = cf ^ (newMasked | cfPrime)
	changedBits = enableMask & affectedAll & updatedSummary
	return updatedSummary, changedBits
}
