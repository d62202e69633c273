package types

// Predefined class symbols the engine needs to recognize structurally.
// Collaborators may extend the world with their own classes; these are the
// fixed points of the search rules.
var (
	AnyClass     = &TypeSymbol{Name: "Any"}
	ObjectClass  = &TypeSymbol{Name: "Object"}
	NothingClass = &TypeSymbol{Name: "Nothing"}
	NullClass    = &TypeSymbol{Name: "Null"}
	UnitClass    = &TypeSymbol{Name: "Unit"}

	// Function1Class is the single-argument function class; legacy source
	// mode admits it as a conversion shape.
	Function1Class = &TypeSymbol{Name: "Function1", TypeParams: []string{"T", "R"}}

	// ConversionClass is the designated implicit-conversion class.
	ConversionClass = &TypeSymbol{Name: "Conversion", TypeParams: []string{"T", "R"}}

	// SubtypeWitnessClass is <:<; IdentityWitnessClass is =:=, the
	// identity-conforming witness that never acts as a conversion.
	SubtypeWitnessClass  = &TypeSymbol{Name: "SubtypeWitness", TypeParams: []string{"From", "To"}}
	IdentityWitnessClass = &TypeSymbol{Name: "IdentityWitness", TypeParams: []string{"From", "To"}}

	// NotClass negates a search: Not[T] succeeds exactly when T fails.
	NotClass = &TypeSymbol{Name: "Not", TypeParams: []string{"T"}}

	// CanEqualClass is the coherence-tagged equality witness: any success
	// is as good as any other, so the first one wins.
	CanEqualClass = &TypeSymbol{Name: "CanEqual", TypeParams: []string{"L", "R"}, Coherent: true}

	// SerializableClass marks synthesized dictionary classes.
	SerializableClass = &TypeSymbol{Name: "Serializable"}
)

var (
	AnyType     Type
	ObjectType  Type
	NothingType Type
	NullType    Type
	UnitType    Type
)

func init() {
	ObjectClass.Parents = []Type{NewNamed(AnyClass)}
	UnitClass.Parents = []Type{NewNamed(AnyClass)}
	SerializableClass.Parents = []Type{NewNamed(ObjectClass)}
	IdentityWitnessClass.Parents = []Type{
		&Applied{Tycon: NewNamed(SubtypeWitnessClass), Args: []Type{&TypeVar{Name: "From"}, &TypeVar{Name: "To"}}},
	}

	AnyType = NewNamed(AnyClass)
	ObjectType = NewNamed(ObjectClass)
	NothingType = NewNamed(NothingClass)
	NullType = NewNamed(NullClass)
	UnitType = NewNamed(UnitClass)
}

// IsTrivialTarget reports types for which view search is never attempted.
func IsTrivialTarget(t Type) bool {
	switch sym := SymOf(dealias(t)); sym {
	case AnyClass, ObjectClass, UnitClass:
		return true
	}
	return false
}

// IsTrivialSource reports source types from which views never apply.
func IsTrivialSource(t Type) bool {
	switch sym := SymOf(dealias(t)); sym {
	case NothingClass, NullClass:
		return true
	}
	return false
}
