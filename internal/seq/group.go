package seq

// Grouping is a key with the elements that produced it
type Grouping[K comparable, V any] struct {
	Key      K
	Elements []V
}

// GroupBy partitions s by key. Groups appear in order of the first element
// producing their key and keep source order inside
func GroupBy[T any, K comparable](s []T, key func(T) K) []Grouping[K, T] {
	index := make(map[K]int)
	var groups []Grouping[K, T]
	for _, v := range s {
		k := key(v)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Grouping[K, T]{Key: k})
		}
		groups[i].Elements = append(groups[i].Elements, v)
	}
	return groups
}

// Join correlates outer and inner on equal keys. Results follow outer order,
// then inner order within each outer element
func Join[O, I any, K comparable, R any](outer []O, inner []I, outerKey func(O) K, innerKey func(I) K, result func(O, I) R) []R {
	lookup := make(map[K][]I)
	for _, i := range inner {
		k := innerKey(i)
		lookup[k] = append(lookup[k], i)
	}
	var out []R
	for _, o := range outer {
		for _, i := range lookup[outerKey(o)] {
			out = append(out, result(o, i))
		}
	}
	return out
}

// LeftJoin is Join that keeps outer elements without a match, passing nil
// for the inner side
func LeftJoin[O, I any, K comparable, R any](outer []O, inner []I, outerKey func(O) K, innerKey func(I) K, result func(O, *I) R) []R {
	lookup := make(map[K][]I)
	for _, i := range inner {
		k := innerKey(i)
		lookup[k] = append(lookup[k], i)
	}
	var out []R
	for _, o := range outer {
		matches := lookup[outerKey(o)]
		if len(matches) == 0 {
			out = append(out, result(o, nil))
			continue
		}
		for idx := range matches {
			out = append(out, result(o, &matches[idx]))
		}
	}
	return out
}

// GroupJoin pairs every outer element with its matching inner elements
func GroupJoin[O, I any, K comparable, R any](outer []O, inner []I, outerKey func(O) K, innerKey func(I) K, result func(O, []I) R) []R {
	lookup := make(map[K][]I)
	for _, i := range inner {
		k := innerKey(i)
		lookup[k] = append(lookup[k], i)
	}
	out := make([]R, 0, len(outer))
	for _, o := range outer {
		out = append(out, result(o, lookup[outerKey(o)]))
	}
	return out
}
