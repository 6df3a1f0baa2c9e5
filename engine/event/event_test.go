package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type named string

func (n named) Name() string { return string(n) }

func TestArgument_Accessors(t *testing.T) {
	i, ok := Int(7).AsInt()
	assert.True(t, ok)
	assert.Equal(t, 7, i)

	_, ok = Int(7).AsString()
	assert.False(t, ok, "int argument must not read as string")

	d, ok := Double(1.5).AsDouble()
	assert.True(t, ok)
	assert.Equal(t, 1.5, d)

	b, ok := Bool(true).AsBool()
	assert.True(t, ok)
	assert.True(t, b)

	s, ok := String("sword").AsString()
	assert.True(t, ok)
	assert.Equal(t, "sword", s)

	g, ok := GameRef("the game").Game()
	assert.True(t, ok)
	assert.Equal(t, "the game", g)

	e, ok := EntityRef(named("troll")).Entity()
	assert.True(t, ok)
	assert.Equal(t, "troll", e.Name())

	e, ok = EntityRef(nil).Entity()
	assert.True(t, ok, "a nil entity is still an entity argument")
	assert.Nil(t, e)

	_, ok = String("x").Entity()
	assert.False(t, ok)
	assert.Equal(t, KindEntity, EntityRef(nil).Kind())
	assert.Equal(t, "<nil>", EntityRef(nil).String())
}

func TestEvent_CopiesInputs(t *testing.T) {
	a, b := NewListener("a"), NewListener("b")
	listeners := []*Listener{a}
	args := []Argument{Int(1)}

	e := New("beforeTake", listeners, args...)
	listeners[0] = b
	args[0] = Int(2)

	assert.Same(t, a, e.Listeners()[0])
	v, _ := e.Args()[0].AsInt()
	assert.Equal(t, 1, v)

	got := e.Listeners()
	got[0] = b
	assert.Same(t, a, e.Listeners()[0], "getter must return a copy")
}

func TestEvent_WithPrependedAndAppended(t *testing.T) {
	a, b, g := NewListener("a"), NewListener("b"), NewListener("game")
	e := New("afterDrop", []*Listener{a, b})

	pre := e.WithPrepended(g)
	post := e.WithAppended(g)

	assert.Equal(t, []*Listener{g, a, b}, pre.Listeners())
	assert.Equal(t, []*Listener{a, b, g}, post.Listeners())
	assert.Equal(t, []*Listener{a, b}, e.Listeners(), "original event unchanged")
	assert.Equal(t, "afterDrop", pre.Name())
}

func TestEvent_ArgBounds(t *testing.T) {
	e := New("x", nil, EntityRef(named("p")), String("s"))
	_, ok := e.Arg(5)
	assert.False(t, ok)
	_, ok = e.Arg(-1)
	assert.False(t, ok)

	require.NotNil(t, e.EntityArg(0))
	assert.Equal(t, "p", e.EntityArg(0).Name())
	assert.Nil(t, e.EntityArg(1))
	assert.Nil(t, e.EntityArg(9))
	assert.Equal(t, 2, e.NumArgs())
}

func TestVerdict_Merge(t *testing.T) {
	assert.Equal(t, Proceed, Proceed.Merge(Proceed))
	assert.Equal(t, Veto, Veto.Merge(Proceed), "veto is sticky")
	assert.Equal(t, Stop, Proceed.Merge(Stop))
	assert.Equal(t, VetoAndStop, Veto.Merge(Stop))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("LAST")
	require.NoError(t, err)
	assert.Equal(t, GlobalLast, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, GlobalFirst, p)

	_, err = ParsePolicy("middle")
	assert.Error(t, err)
}
