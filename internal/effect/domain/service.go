package domain

// Classifier groups a flat engine effect list into the typed buckets the
// reconcilers consume. Classification is pure: it never touches storage.
type Classifier interface {
	Classify(effects []Effect) *ClassifiedEffects
}
