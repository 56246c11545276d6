package meshpbr

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestQuery_Map(t *testing.T) {
	type Comp1 struct{ a int }
	type Comp2 struct{ b float32 }
	type Comp3 struct{}

	ecs := MakeEcs()
	ecs.addEntity(Comp1{a: 1})                                 // comp1 only                       -- shouldn't match
	id2 := ecs.addEntity(Comp1{a: 2}, Comp2{b: 1.37})          // comp1 & comp2                    -- should match
	id3 := ecs.addEntity(Comp1{a: 3}, Comp2{b: 4.20}, Comp3{}) // comp1 & comp2 + something extra  -- should match
	ecs.addEntity(Comp1{a: 4}, Comp3{})                        // comp1 + something extra          -- shouldn't match
	ecs.addEntity(Comp2{b: 3.14})                              // comp2 only                       -- shouldn't match

	query := Query2[Comp1, Comp2]{ecs: &ecs}

	got := map[EntityId][2]any{}
	query.Map(func(entityId EntityId, comp1 *Comp1, comp2 *Comp2) bool {
		got[entityId] = [2]any{*comp1, *comp2}
		return true
	})

	assert.Equal(t, map[EntityId][2]any{
		id2: {Comp1{a: 2}, Comp2{b: 1.37}},
		id3: {Comp1{a: 3}, Comp2{b: 4.20}},
	}, got)
}

func TestQuery_Optionals(t *testing.T) {
	ecs := MakeEcs()
	plain := ecs.addEntity(NewTransform())
	drawn := ecs.addEntity(NewTransform(), RenderableComponent{})

	query := Query2[TransformComponent, RenderableComponent]{ecs: &ecs}
	withRenderable := map[EntityId]bool{}
	query.Map(func(eid EntityId, tr *TransformComponent, r *RenderableComponent) bool {
		assert.NotNil(t, tr)
		withRenderable[eid] = r != nil
		return true
	}, RenderableComponent{})

	assert.Equal(t, map[EntityId]bool{plain: false, drawn: true}, withRenderable)
}

func TestQuery_StopsWhenCallbackReturnsFalse(t *testing.T) {
	ecs := MakeEcs()
	for i := 0; i < 5; i++ {
		ecs.addEntity(LightComponent{Intensity: float32(i)})
	}

	visited := 0
	Query1[LightComponent]{ecs: &ecs}.Map(func(eid EntityId, l *LightComponent) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)
}

func TestQuery_MutatesInPlace(t *testing.T) {
	ecs := MakeEcs()
	eid := ecs.addEntity(NewTransform(), LightComponent{}, CameraComponent{})

	Query2[TransformComponent, CameraComponent]{ecs: &ecs}.Map(
		func(id EntityId, tr *TransformComponent, c *CameraComponent) bool {
			tr.PreMultiply(ScaleTranslate(2, mgl32.Vec3{1, 2, 3}))
			return true
		})

	Query1[TransformComponent]{ecs: &ecs}.Map(func(id EntityId, tr *TransformComponent) bool {
		assert.Equal(t, eid, id)
		assert.Equal(t, mgl32.Vec4{1, 2, 3, 1}, tr.World.Col(3))
		assert.Equal(t, float32(2), tr.World.At(0, 0))
		return true
	})
}
