package classifier

import "fmt"

// NewClassifier creates a classifier for the named variant
func NewClassifier(variant string, workers int) (Classifier, error) {
	switch variant {
	case "blue-dominance", "":
		c := NewBlueDominance()
		if workers > 1 {
			c.Workers = workers
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown classifier variant: %s", variant)
	}
}
