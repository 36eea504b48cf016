package recipients

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want []string
	}{
		{"empty", "", []string{}},
		{"single", "42", []string{"42"}},
		{"trimmed", " 1 ,2,  3", []string{"1", "2", "3"}},
		{"blank entries", "1,,2, ,", []string{"1", "2"}},
		{"thread ids", "-1001:5,7", []string{"-1001:5", "7"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Parse(" 99 ", tt.csv)
			assert.Equal(t, "99", d.Owner())
			assert.Equal(t, tt.want, d.Subscribers())
			assert.Equal(t, len(tt.want), d.Len())
		})
	}
}

func TestSubscribersReturnsCopy(t *testing.T) {
	d := New("1", []string{"a", "b"})
	subs := d.Subscribers()
	subs[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, d.Subscribers())
}

func TestConcurrentReads(t *testing.T) {
	d := Parse("1", "2,3,4")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "1", d.Owner())
			assert.Len(t, d.Subscribers(), 3)
		}()
	}
	wg.Wait()
}
