package meshpbr

import (
	"reflect"
	"slices"
)

// Queries iterate archetypes holding every requested component. A component
// passed in optionals may be missing; the callback then receives nil for it.
// Returning false from the callback stops the iteration.
type Query1[A any] struct{ ecs *Ecs }
type Query2[A, B any] struct{ ecs *Ecs }

func MakeQuery1[A any](cmd *Commands) Query1[A]       { return Query1[A]{ecs: cmd.app.ecs} }
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B] { return Query2[A, B]{ecs: cmd.app.ecs} }

func (q Query1[A]) Map(m func(EntityId, *A) bool, optionals ...any) {
	id1 := identifyComponent[A](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.sortedArchetypes() {
		comps1, ok1 := columnOf[A](arch, id1, opt)
		if !ok1 {
			continue
		}
		for _, entityId := range arch.sortedEntities() {
			row := arch.entities[entityId]
			if !m(entityId, at(comps1, row)) {
				return
			}
		}
	}
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool, optionals ...any) {
	id1 := identifyComponent[A](q.ecs)
	id2 := identifyComponent[B](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.sortedArchetypes() {
		comps1, ok1 := columnOf[A](arch, id1, opt)
		comps2, ok2 := columnOf[B](arch, id2, opt)
		if !ok1 || !ok2 {
			continue
		}
		for _, entityId := range arch.sortedEntities() {
			row := arch.entities[entityId]
			if !m(entityId, at(comps1, row), at(comps2, row)) {
				return
			}
		}
	}
}

// columnOf returns the typed column for a component, or nil with ok=true when
// the archetype lacks an optional component.
func columnOf[T any](arch *archetype, id componentId, opt set[componentId]) ([]T, bool) {
	if data, ok := arch.componentData[id]; ok {
		return data.([]T), true
	}
	if _, ok := opt[id]; ok {
		return nil, true
	}
	return nil, false
}

func at[T any](column []T, r row) *T {
	if column == nil {
		return nil
	}
	return &column[r]
}

func (ecs *Ecs) sortedArchetypes() []*archetype {
	ids := make([]archetypeId, 0, len(ecs.archetypes))
	for id := range ecs.archetypes {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	res := make([]*archetype, len(ids))
	for i, id := range ids {
		res[i] = ecs.archetypes[id]
	}
	return res
}

func (arch *archetype) sortedEntities() []EntityId {
	ids := make([]EntityId, 0, len(arch.entities))
	for id := range arch.entities {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func identifyOptionals(ecs *Ecs, components ...any) set[componentId] {
	res := make(set[componentId])
	for _, c := range components {
		t := reflect.TypeOf(c)
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		res[ecs.getComponentId(t)] = struct{}{}
	}

	return res
}

func identifyComponent[A any](ecs *Ecs) componentId {
	var a A
	return ecs.getComponentId(reflect.TypeOf(a))
}
