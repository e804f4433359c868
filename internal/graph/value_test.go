package graph_test

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/FAU-CDI/pgrdf/internal/graph"
)

func ExampleArray() {
	value, _ := graph.Array(graph.Integer(1), graph.Integer(2), graph.Integer(2), graph.Integer(3))
	fmt.Println(value)
	fmt.Println(value.Len())

	// Output: [1, 2, 3]
	// 3
}

func ExampleValue_Append() {
	value := graph.Single(graph.String("a"))
	value, _ = value.Append(graph.String("b"), graph.String("a"))
	fmt.Println(value.IsArray(), value)

	// Output: true [a, b]
}

func TestValue_Append_MixedKinds(t *testing.T) {
	t.Parallel()

	value := graph.Single(graph.String("a"))
	got, err := value.Append(graph.Integer(1))
	if !errors.Is(err, graph.ErrMixedKinds) {
		t.Errorf("Append() got error = %v, want = %v", err, graph.ErrMixedKinds)
	}
	if !got.Equal(value) {
		t.Errorf("Append() got = %v, want = %v", got, value)
	}
}

func TestValue_Remove(t *testing.T) {
	t.Parallel()

	value, _ := graph.Array(graph.Integer(1), graph.Integer(2), graph.Integer(3))
	got, removed := value.Remove(graph.Integer(2), graph.Integer(4))
	if removed != 1 {
		t.Errorf("Remove() got removed = %d, want = 1", removed)
	}

	want, _ := graph.Array(graph.Integer(3), graph.Integer(1))
	if !got.Equal(want) {
		t.Errorf("Remove() got = %v, want = %v", got, want)
	}

	// the original is unchanged
	if value.Len() != 3 {
		t.Errorf("Remove() modified receiver: %v", value)
	}
}

func TestScalar_String(t *testing.T) {
	t.Parallel()

	when := time.Date(2023, time.March, 4, 13, 37, 0, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		name   string
		scalar graph.Scalar
		want   string
	}{
		{"string", graph.String("hello"), "hello"},
		{"integer", graph.Integer(-42), "-42"},
		{"float", graph.Float(1.5), "1.5"},
		{"infinity", graph.Float(math.Inf(1)), "INF"},
		{"nan", graph.Float(math.NaN()), "NaN"},
		{"boolean", graph.Boolean(true), "true"},
		{"date", graph.Date(when), "2023-03-04"},
		{"datetime keeps wall clock", graph.DateTime(when), "2023-03-04T13:37:00"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.scalar.String(); got != tt.want {
				t.Errorf("Scalar.String() got = %q, want = %q", got, tt.want)
			}
		})
	}
}

func TestScalar_Equal(t *testing.T) {
	t.Parallel()

	if graph.Integer(1).Equal(graph.Float(1)) {
		t.Error("Integer(1).Equal(Float(1)) got = true, want = false")
	}
	if !graph.Float(math.NaN()).Equal(graph.Float(math.NaN())) {
		t.Error("Float(NaN).Equal(Float(NaN)) got = false, want = true")
	}
}
