package ecs

type testComponent1 struct{ Unique }

type testComponent2 struct{ Unique }

type testComponent3 struct {
	Unique
	ValueOne int
	ValueTwo int
}

// counts how many duplicates it absorbed
type testComponent4 struct {
	Resolved int
}

func (c *testComponent4) ResolveDuplicate(Component) (Component, error) {
	return &testComponent4{Resolved: c.Resolved + 1}, nil
}

// resolves into a different kind, which the entity must reject
type shapeShifter struct{}

func (*shapeShifter) ResolveDuplicate(Component) (Component, error) {
	return &testComponent1{}, nil
}

type damage struct{ Amount int }

type heal struct{ Amount int }

func mustEntity(components ...Component) *Entity {
	e, err := NewEntity(components...)
	if err != nil {
		panic(err)
	}
	return e
}
