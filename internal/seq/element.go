package seq

// First returns the first element
func First[T any](s []T) (T, error) {
	var zero T
	if len(s) == 0 {
		return zero, ErrNoElements
	}
	return s[0], nil
}

// FirstWhere returns the first element matching pred
func FirstWhere[T any](s []T, pred func(T) bool) (T, error) {
	return First(Where(s, pred))
}

// FirstOrDefault returns the first element, or the zero value
func FirstOrDefault[T any](s []T) T {
	v, _ := First(s)
	return v
}

// Last returns the last element
func Last[T any](s []T) (T, error) {
	var zero T
	if len(s) == 0 {
		return zero, ErrNoElements
	}
	return s[len(s)-1], nil
}

// LastOrDefault returns the last element, or the zero value
func LastOrDefault[T any](s []T) T {
	v, _ := Last(s)
	return v
}

// Single returns the only element of s
func Single[T any](s []T) (T, error) {
	var zero T
	switch len(s) {
	case 0:
		return zero, ErrNoElements
	case 1:
		return s[0], nil
	default:
		return zero, ErrMoreThanOneElement
	}
}

// SingleOrDefault returns the only element, or the zero value for an empty
// s. More than one element is still an error
func SingleOrDefault[T any](s []T) (T, error) {
	v, err := Single(s)
	if err == ErrNoElements {
		return v, nil
	}
	return v, err
}
