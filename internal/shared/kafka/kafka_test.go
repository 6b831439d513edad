package kafka

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/segmentio/kafka-go"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (c *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	c.msgs = append(c.msgs, msgs...)
	return c.err
}

func TestBrokers(t *testing.T) {
	got := Brokers(" a:9092, b:9092,,")
	if !reflect.DeepEqual(got, []string{"a:9092", "b:9092"}) {
		t.Errorf("Brokers = %v", got)
	}
}

func TestWriteJSON(t *testing.T) {
	w := &captureWriter{}
	if err := WriteJSON(context.Background(), w, "r1", []byte(`{"x":1}`)); err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "r1" || string(w.msgs[0].Value) != `{"x":1}` {
		t.Errorf("messages = %+v", w.msgs)
	}

	w.err = errors.New("broker down")
	if err := WriteJSON(context.Background(), w, "r1", nil); !errors.Is(err, w.err) {
		t.Errorf("err = %v, want wrapped broker error", err)
	}
}
