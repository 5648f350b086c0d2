package loader

// Named is the shape of the class, subject and chapter lists.
type Named struct {
	ID   int64
	Name string
}

var (
	DefaultClasses = names(
		"Class 6", "Class 7", "Class 8", "Class 9", "Class 10", "Class 11", "Class 12",
	)
	DefaultSubjects = names(
		"Mathematics", "Science", "English", "Social Science", "Hindi",
	)
	DefaultChapters = names(
		"Real Numbers", "Polynomials", "Pair of Linear Equations",
		"Quadratic Equations", "Arithmetic Progressions",
	)
)

// Static builds a fallback that always yields list, whatever the key.
func Static(list []Named) func(string) []Named {
	return func(string) []Named { return append([]Named(nil), list...) }
}

// Browse is the policy used by the class, subject and chapter lists: show
// the built-in list when the server has nothing or cannot be reached.
func Browse(list []Named) Policy[Named] {
	return Policy[Named]{Fallback: Static(list), OnEmpty: true, OnError: true}
}

func names(ns ...string) []Named {
	out := make([]Named, len(ns))
	for i, n := range ns {
		out[i] = Named{ID: int64(i + 1), Name: n}
	}
	return out
}
