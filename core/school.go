package core

// ClassLevels are the class levels batches and students are grouped by.
var ClassLevels = []string{"9th", "10th", "11th", "12th", "Dropper"}

// AllBatches is the batch scope of tests that are not restricted to a batch.
const AllBatches = "all"
