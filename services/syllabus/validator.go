package syllabus

// Validate checks whether a concept list meets the minimum-count
// threshold and reports the deficit. Pure: no side effects, no I/O.
func Validate(concepts []string, minPerLevel int) (meetsThreshold bool, needed int) {
	meetsThreshold = len(concepts) >= minPerLevel
	needed = minPerLevel - len(concepts)
	if needed < 0 {
		needed = 0
	}
	return meetsThreshold, needed
}
