package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionEvaluator_AndOr(t *testing.T) {
	e := NewConditionEvaluator()
	data := map[string]interface{}{
		"message":       "Do you ship to Jakarta?",
		"channel":       "whatsapp",
		"lead_score":    42,
		"contact_tags":  []string{"vip", "newsletter"},
		"contact_stage": "lead",
	}

	ok, err := e.Evaluate(nil, data)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Evaluate([]Condition{
		{Field: "message", Operator: "contains", Value: "SHIP"},
		{Field: "channel", Operator: "equals", Value: "WhatsApp"},
		{Field: "lead_score", Operator: "greater_than", Value: float64(40)},
	}, data)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Evaluate([]Condition{
		{Field: "channel", Operator: "equals", Value: "instagram"},
		{Field: "contact_tags", Operator: "contains", Value: "vip", Logic: "OR"},
	}, data)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Evaluate([]Condition{
		{Field: "lead_score", Operator: "less_than", Value: "10"},
		{Field: "contact_stage", Operator: "not_equals", Value: "lead"},
	}, data)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConditionEvaluator_Errors(t *testing.T) {
	e := NewConditionEvaluator()
	data := map[string]interface{}{"message": "hi"}

	_, err := e.Evaluate([]Condition{{Field: "missing", Operator: "equals", Value: 1}}, data)
	assert.Error(t, err)

	ok, err := e.Evaluate([]Condition{{Field: "missing", Operator: "not_equals", Value: 1}}, data)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = e.Evaluate([]Condition{{Field: "message", Operator: "matches", Value: "x"}}, data)
	assert.ErrorContains(t, err, "unknown operator")
}

func TestReplaceVariables(t *testing.T) {
	out := ReplaceVariables("Hi {first_name}, your {missing} order {order_id}", map[string]interface{}{
		"first_name": "Ada",
		"order_id":   1001,
	})
	assert.Equal(t, "Hi Ada, your {missing} order 1001", out)
}

func TestActionExecutor_RunStopsOnFailure(t *testing.T) {
	e := NewActionExecutor()
	var ran []string
	e.Register("first", func(_ context.Context, a Action, data map[string]interface{}) error {
		ran = append(ran, a.Type)
		data["from_first"] = true
		return nil
	})
	e.Register("boom", func(_ context.Context, a Action, _ map[string]interface{}) error {
		ran = append(ran, a.Type)
		return errors.New("exploded")
	})

	data := map[string]interface{}{}
	entries, err := e.Run(context.Background(), []Action{{Type: "first"}, {Type: "boom"}, {Type: "first"}}, data)

	require.Error(t, err)
	assert.Equal(t, []string{"first", "boom"}, ran)
	require.Len(t, entries, 2)
	assert.Equal(t, EntrySuccess, entries[0].Status)
	assert.Equal(t, EntryFailed, entries[1].Status)
	assert.Equal(t, "exploded", entries[1].Error)
	assert.Equal(t, true, data["from_first"])
}

func TestActionExecutor_UnknownAndBuiltins(t *testing.T) {
	e := NewActionExecutor()

	err := e.Execute(context.Background(), Action{Type: "nope"}, nil)
	assert.ErrorContains(t, err, "unknown action type")

	err = e.Execute(context.Background(), Action{Type: ActionLogMessage, Config: map[string]interface{}{}}, nil)
	assert.ErrorContains(t, err, "message is required")

	err = e.Execute(context.Background(), Action{Type: ActionLogMessage, Config: map[string]interface{}{"message": "hello {name}"}}, map[string]interface{}{"name": "x"})
	assert.NoError(t, err)
}

func TestScheduler_AddReplaceRemove(t *testing.T) {
	s := NewScheduler()
	require.NoError(t, s.AddJob("tick", "@every 1m", func() {}))
	require.NoError(t, s.AddJob("tick", "@every 2m", func() {}))
	assert.Equal(t, []string{"tick"}, s.Names())

	assert.Error(t, s.AddJob("bad", "not a schedule", func() {}))

	s.RemoveJob("tick")
	assert.Empty(t, s.Names())
}
