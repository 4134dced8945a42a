package inheritance

import "slices"

func ptr[T any](v T) *T { return &v }

// Dataset holds each row once, typed by its most derived type
type Dataset struct {
	Bases        []InheritanceBase
	Derived      []InheritanceDerived
	Leaves       []InheritanceLeaf
	BaseItems    []BaseCollectionItem
	DerivedItems []DerivedCollectionItem
}

func base(id int, name, kind string) InheritanceBase {
	return InheritanceBase{ID: id, Name: name, Discriminator: kind}
}

func item(id int, parent *int, name, kind string) BaseCollectionItem {
	return BaseCollectionItem{ID: id, BaseParentID: parent, Name: name, Discriminator: kind}
}

func Generate() *Dataset {
	return &Dataset{
		Bases: []InheritanceBase{
			base(1, "Base1(1)", BaseKind),
			base(2, "Base2(2)", BaseKind),
			base(3, "Base3(3)", BaseKind),
		},
		Derived: []InheritanceDerived{
			{InheritanceBase: base(4, "Derived1(4)", DerivedKind), DerivedData: "derived data 4"},
			{InheritanceBase: base(5, "Derived2(5)", DerivedKind), DerivedData: "derived data 5"},
		},
		Leaves: []InheritanceLeaf{
			{
				InheritanceDerived: InheritanceDerived{InheritanceBase: base(6, "Leaf1(6)", LeafKind), DerivedData: "derived data 6"},
				LeafData:           "leaf data 6",
			},
			{
				InheritanceDerived: InheritanceDerived{InheritanceBase: base(7, "Leaf2(7)", LeafKind), DerivedData: "derived data 7"},
				LeafData:           "leaf data 7",
			},
		},
		BaseItems: []BaseCollectionItem{
			item(1, ptr(1), "BaseCollectionItem1", BaseItemKind),
			item(2, ptr(1), "BaseCollectionItem2", BaseItemKind),
			item(3, ptr(2), "BaseCollectionItem3", BaseItemKind),
			item(4, ptr(4), "BaseCollectionItem4", BaseItemKind),
			item(8, ptr(6), "BaseCollectionItem8", BaseItemKind),
			item(11, nil, "BaseCollectionItem11", BaseItemKind),
		},
		DerivedItems: []DerivedCollectionItem{
			{BaseCollectionItem: item(5, ptr(4), "DerivedCollectionItem5", DerivedItemKind), DerivedProperty: ptr(5)},
			{BaseCollectionItem: item(6, ptr(4), "DerivedCollectionItem6", DerivedItemKind), DerivedProperty: ptr(6)},
			{BaseCollectionItem: item(7, ptr(5), "DerivedCollectionItem7", DerivedItemKind), DerivedProperty: ptr(7)},
			{BaseCollectionItem: item(9, ptr(6), "DerivedCollectionItem9", DerivedItemKind), DerivedProperty: ptr(9)},
			{BaseCollectionItem: item(10, ptr(7), "DerivedCollectionItem10", DerivedItemKind)},
		},
	}
}

// Expected is the dataset as each type of a hierarchy sees it: querying a
// type yields its own rows plus those of its subtypes.
type Expected struct {
	Bases        []InheritanceBase
	Derived      []InheritanceDerived
	Leaves       []InheritanceLeaf
	BaseItems    []BaseCollectionItem
	DerivedItems []DerivedCollectionItem
}

func (d *Dataset) Expected() *Expected {
	e := &Expected{
		BaseItems:    slices.Clone(d.BaseItems),
		DerivedItems: slices.Clone(d.DerivedItems),
	}
	for _, di := range d.DerivedItems {
		e.BaseItems = append(e.BaseItems, di.BaseCollectionItem)
	}
	slices.SortFunc(e.BaseItems, func(a, b BaseCollectionItem) int { return a.ID - b.ID })

	collection := func(id int) []BaseCollectionItem {
		var out []BaseCollectionItem
		for _, it := range e.BaseItems {
			if it.BaseParentID != nil && *it.BaseParentID == id {
				out = append(out, it)
			}
		}
		return out
	}

	for _, l := range d.Leaves {
		l.BaseCollection = collection(l.ID)
		e.Leaves = append(e.Leaves, l)
	}
	for _, v := range d.Derived {
		v.BaseCollection = collection(v.ID)
		e.Derived = append(e.Derived, v)
	}
	for _, l := range e.Leaves {
		e.Derived = append(e.Derived, l.InheritanceDerived)
	}
	for _, b := range d.Bases {
		b.BaseCollection = collection(b.ID)
		e.Bases = append(e.Bases, b)
	}
	for _, v := range e.Derived {
		e.Bases = append(e.Bases, v.InheritanceBase)
	}
	return e
}
