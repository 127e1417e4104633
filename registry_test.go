package gemmshapes

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	reg := Default()
	assert.Same(t, reg, Default())
	assert.Equal(t, len(Profiles()), reg.Len())
	assert.Equal(t, ActiveProfiles(), reg.List(true))
	assert.Equal(t, Profiles(), reg.List(false))

	assert.True(t, reg.Has("internlm2.5-7b"))
	assert.Equal(t, "llama2-70b", reg.MustGet("LLAMA3-70B").Name)
}

func TestRegistryRegister(t *testing.T) {
	reg, err := NewRegistry(Profiles()...)
	require.NoError(t, err)

	m := validProfile()
	require.NoError(t, reg.Register(m))
	assert.Equal(t, "mistral-7b", reg.Names()[reg.Len()-1])

	got, err := reg.Get("mistral")
	require.NoError(t, err)
	assert.Equal(t, m, got)

	err = reg.Register(m)
	assert.True(t, IsDuplicateError(err), "same name: %v", err)

	clash := validProfile()
	clash.Name = "other"
	clash.Aliases = []string{"LLAMA2-7B"}
	err = reg.Register(clash)
	assert.True(t, IsDuplicateError(err), "alias clash: %v", err)
	assert.False(t, reg.Has("other"), "failed registration must not leave partial state")

	self := validProfile()
	self.Name = "selfish"
	self.Aliases = []string{"Selfish"}
	assert.True(t, IsDuplicateError(reg.Register(self)))

	bad := validProfile()
	bad.Name = "bad"
	bad.Shapes[Down] = Shape{4096, 0}
	assert.True(t, IsInvalidArgError(reg.Register(bad)))
}

func TestRegistryZeroValue(t *testing.T) {
	var reg Registry
	assert.Equal(t, 0, reg.Len())
	assert.False(t, reg.Has("llama2-7b"))
	require.NoError(t, reg.Register(validProfile()))
	assert.Equal(t, []string{"mistral-7b"}, reg.Names())
}

func TestRegistryReplace(t *testing.T) {
	reg, err := NewRegistry(Profiles()...)
	require.NoError(t, err)

	qwen, err := reg.Get("qwen2-72b")
	require.NoError(t, err)
	require.False(t, qwen.Active)

	qwen.Active = true
	qwen.Aliases = []string{"qwen2-72b-instruct"}
	require.NoError(t, reg.Replace(qwen))

	got, err := reg.Get("qwen2-72b-instruct")
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.Len(t, reg.List(true), len(ActiveProfiles())+1)
	assert.Equal(t, "qwen2-72b", reg.Names()[reg.Len()-1], "replace keeps position")

	// the previous alias set is dropped
	llama3, err := reg.Get("llama3-8b")
	require.NoError(t, err)
	llama3.Aliases = nil
	require.NoError(t, reg.Replace(llama3))
	assert.False(t, reg.Has("internlm2.5-7b"))

	err = reg.Replace(validProfile())
	assert.True(t, IsNotFoundError(err))

	// replacing via an alias is not allowed
	alias := validProfile()
	alias.Name = "llama3-70b"
	assert.True(t, IsNotFoundError(reg.Replace(alias)))

	steal := qwen
	steal.Aliases = []string{"glm4-9b"}
	assert.True(t, IsDuplicateError(reg.Replace(steal)))

	// Default is untouched
	assert.False(t, Default().MustGet("qwen2-72b").Active)
}

func TestRegistryMustGetPanics(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	assert.Panics(t, func() { reg.MustGet("llama2-7b") })
}

func TestRegistryReturnsCopies(t *testing.T) {
	reg, err := NewRegistry(Profiles()...)
	require.NoError(t, err)

	m := reg.MustGet("llama3-8b")
	m.Aliases[0] = "changed"
	assert.True(t, reg.Has("internlm2.5-7b"))
	assert.Equal(t, "internlm2.5-7b", reg.MustGet("llama3-8b").Aliases[0])

	names := reg.Names()
	names[0] = "changed"
	assert.Equal(t, "llama2-7b", reg.Names()[0])
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg, err := NewRegistry(Profiles()...)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = reg.List(true)
				_, _ = reg.Get("yi-34b")
			}
		}()
		go func(i int) {
			defer wg.Done()
			m := validProfile()
			m.Name = m.Name + "-" + string(rune('a'+i))
			m.Aliases = nil
			assert.NoError(t, reg.Register(m))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, len(Profiles())+8, reg.Len())
}

func TestRegistryUpdate(t *testing.T) {
	reg, err := NewRegistry(Profiles()...)
	require.NoError(t, err)
	names := reg.Names()

	err = reg.Update(func(tx *Registry) error {
		require.NoError(t, tx.Register(validProfile()))
		qwen := tx.MustGet("qwen2-72b")
		qwen.Active = true
		require.NoError(t, tx.Replace(qwen))
		return NewDuplicateError("Register", "llama3-70b")
	})
	assert.True(t, IsDuplicateError(err))
	assert.Equal(t, names, reg.Names())
	assert.False(t, reg.Has("mistral"))
	assert.False(t, reg.MustGet("qwen2-72b").Active)

	err = reg.Update(func(tx *Registry) error {
		return tx.Register(validProfile())
	})
	require.NoError(t, err)
	assert.Equal(t, len(names)+1, reg.Len())
	assert.True(t, reg.Has("mistral"))
}
