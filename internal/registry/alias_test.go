package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errors2 "github.com/xraph/anchor/errors"
)

func TestRegisterAlias_Canonical(t *testing.T) {
	a := NewAliasRegistry()

	require.NoError(t, a.RegisterAlias("service", "svc"))

	assert.Equal(t, "service", a.CanonicalName("svc"))
	assert.Equal(t, "service", a.CanonicalName("service"))
}

func TestRegisterAlias_TransitiveChain(t *testing.T) {
	a := NewAliasRegistry()

	require.NoError(t, a.RegisterAlias("service", "svc"))
	require.NoError(t, a.RegisterAlias("svc", "s"))

	assert.Equal(t, "service", a.CanonicalName("s"))
	assert.True(t, a.HasAlias("service", "s"))
}

func TestRegisterAlias_EmptyArguments(t *testing.T) {
	a := NewAliasRegistry()

	assert.ErrorIs(t, a.RegisterAlias("", "alias"), errors2.ErrInvalidArgument("name", ""))
	assert.ErrorIs(t, a.RegisterAlias("name", ""), errors2.ErrInvalidArgument("alias", ""))
}

func TestRegisterAlias_SelfAliasRemoves(t *testing.T) {
	a := NewAliasRegistry()
	require.NoError(t, a.RegisterAlias("service", "svc"))

	// Registering a name as its own alias removes the existing mapping
	require.NoError(t, a.RegisterAlias("svc", "svc"))

	assert.False(t, a.IsAlias("svc"))
	assert.Equal(t, "svc", a.CanonicalName("svc"))
}

func TestRegisterAlias_Idempotent(t *testing.T) {
	a := NewAliasRegistry()

	require.NoError(t, a.RegisterAlias("service", "svc"))
	require.NoError(t, a.RegisterAlias("service", "svc"))

	assert.Equal(t, []string{"svc"}, a.Aliases("service"))
}

func TestRegisterAlias_CircularReference(t *testing.T) {
	a := NewAliasRegistry()
	require.NoError(t, a.RegisterAlias("b", "a"))

	err := a.RegisterAlias("a", "b")

	assert.ErrorIs(t, err, errors2.ErrCircularReference("a", "b"))
}

func TestRegisterAlias_TransitiveCircularReference(t *testing.T) {
	a := NewAliasRegistry()
	require.NoError(t, a.RegisterAlias("b", "a"))
	require.NoError(t, a.RegisterAlias("c", "b"))

	// a -> b -> c, closing the loop c -> a must fail
	err := a.RegisterAlias("c", "a")
	assert.ErrorIs(t, err, errors2.ErrCircularReference("c", "a"))
}

func TestRegisterAlias_OverridingAllowedByDefault(t *testing.T) {
	a := NewAliasRegistry()
	require.NoError(t, a.RegisterAlias("first", "alias"))

	require.NoError(t, a.RegisterAlias("second", "alias"))

	assert.Equal(t, "second", a.CanonicalName("alias"))
}

func TestRegisterAlias_OverridingDisallowed(t *testing.T) {
	a := NewAliasRegistry(WithAliasOverriding(false))
	require.NoError(t, a.RegisterAlias("first", "alias"))

	err := a.RegisterAlias("second", "alias")

	assert.ErrorIs(t, err, errors2.ErrAliasAlreadyRegistered("alias", "second", "first"))
	assert.Equal(t, "first", a.CanonicalName("alias"))
}

func TestRemoveAlias(t *testing.T) {
	a := NewAliasRegistry()
	require.NoError(t, a.RegisterAlias("service", "svc"))

	require.NoError(t, a.RemoveAlias("svc"))

	assert.False(t, a.IsAlias("svc"))
}

func TestRemoveAlias_NotFound(t *testing.T) {
	a := NewAliasRegistry()

	err := a.RemoveAlias("missing")

	assert.ErrorIs(t, err, errors2.ErrAliasNotFound("missing"))
}

func TestIsAlias(t *testing.T) {
	a := NewAliasRegistry()
	require.NoError(t, a.RegisterAlias("service", "svc"))

	assert.True(t, a.IsAlias("svc"))
	// Canonical names are not aliases
	assert.False(t, a.IsAlias("service"))
}

func TestAliases_Transitive(t *testing.T) {
	a := NewAliasRegistry()
	require.NoError(t, a.RegisterAlias("X", "alias1"))
	require.NoError(t, a.RegisterAlias("alias1", "alias2"))

	aliases := a.Aliases("X")

	assert.ElementsMatch(t, []string{"alias1", "alias2"}, aliases)
	assert.Empty(t, a.Aliases("unknown"))
}

func TestResolveAliases_NilResolver(t *testing.T) {
	a := NewAliasRegistry()

	err := a.ResolveAliases(nil)

	assert.ErrorIs(t, err, errors2.ErrInvalidArgument("resolver", ""))
}

func TestResolveAliases_DropsEmptyAndEqual(t *testing.T) {
	a := NewAliasRegistry()
	require.NoError(t, a.RegisterAlias("service", "gone"))
	require.NoError(t, a.RegisterAlias("service", "collapsed"))

	require.NoError(t, a.ResolveAliases(func(value string) string {
		switch value {
		case "gone":
			return ""
		case "collapsed":
			return "service"
		default:
			return value
		}
	}))

	assert.False(t, a.IsAlias("gone"))
	assert.False(t, a.IsAlias("collapsed"))
}

func TestResolveAliases_RewritesAlias(t *testing.T) {
	a := NewAliasRegistry()
	require.NoError(t, a.RegisterAlias("service", "${placeholder}"))

	require.NoError(t, a.ResolveAliases(func(value string) string {
		if value == "${placeholder}" {
			return "svc"
		}
		return value
	}))

	assert.False(t, a.IsAlias("${placeholder}"))
	assert.Equal(t, "service", a.CanonicalName("svc"))
}

func TestResolveAliases_RepointsCanonicalName(t *testing.T) {
	a := NewAliasRegistry()
	require.NoError(t, a.RegisterAlias("${target}", "svc"))

	require.NoError(t, a.ResolveAliases(func(value string) string {
		if value == "${target}" {
			return "service"
		}
		return value
	}))

	assert.Equal(t, "service", a.CanonicalName("svc"))
}

func TestResolveAliases_DeduplicatesSameTarget(t *testing.T) {
	a := NewAliasRegistry()
	require.NoError(t, a.RegisterAlias("service", "svc"))
	require.NoError(t, a.RegisterAlias("service", "${svc}"))

	require.NoError(t, a.ResolveAliases(func(value string) string {
		return strings.Trim(value, "${}")
	}))

	assert.True(t, a.IsAlias("svc"))
	assert.False(t, a.IsAlias("${svc}"))
	assert.Equal(t, "service", a.CanonicalName("svc"))
}

func TestResolveAliases_Collision(t *testing.T) {
	a := NewAliasRegistry()
	require.NoError(t, a.RegisterAlias("first", "svc"))
	require.NoError(t, a.RegisterAlias("second", "${svc}"))

	err := a.ResolveAliases(func(value string) string {
		return strings.Trim(value, "${}")
	})

	assert.ErrorIs(t, err, errors2.ErrAliasAlreadyRegistered("svc", "second", "${svc}"))
}

func TestResolveAliases_RejectsIntroducedCircle(t *testing.T) {
	a := NewAliasRegistry()
	require.NoError(t, a.RegisterAlias("b", "a"))
	require.NoError(t, a.RegisterAlias("x", "c"))

	// Rewriting c -> x into c -> would-be alias of a closes a loop a -> b
	// only when the rewritten pair points back into the chain.
	err := a.ResolveAliases(func(value string) string {
		if value == "x" {
			return "a"
		}
		if value == "c" {
			return "b"
		}
		return value
	})

	assert.ErrorIs(t, err, errors2.ErrCircularReference("", ""))
}
