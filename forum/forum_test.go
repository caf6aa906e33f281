package forum_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agora/forum"
)

func TestTopic_Unanswered(t *testing.T) {
	t.Parallel()

	require.True(t, (&forum.Topic{PostCount: 1}).Unanswered())
	require.False(t, (&forum.Topic{PostCount: 2}).Unanswered())
}

func TestUpdateTopicParams_ApplyTo(t *testing.T) {
	t.Parallel()

	t.Run("applies title and set fields", func(t *testing.T) {
		t.Parallel()

		topic := &forum.Topic{Title: "old", Weight: 1, Sticky: false}

		weight := 7
		sticky := true
		forum.UpdateTopicParams{
			Title:  "new",
			Weight: &weight,
			Sticky: &sticky,
		}.ApplyTo(topic)

		require.Equal(t, "new", topic.Title)
		require.Equal(t, 7, topic.Weight)
		require.True(t, topic.Sticky)
	})

	t.Run("nil fields leave current values", func(t *testing.T) {
		t.Parallel()

		topic := &forum.Topic{
			Title:           "old",
			Weight:          3,
			Sticky:          true,
			Announcement:    true,
			NotifyOnAnswers: true,
		}

		forum.UpdateTopicParams{Title: "new"}.ApplyTo(topic)

		require.Equal(t, "new", topic.Title)
		require.Equal(t, 3, topic.Weight)
		require.True(t, topic.Sticky)
		require.True(t, topic.Announcement)
		require.True(t, topic.NotifyOnAnswers)
	})

	t.Run("explicit false overrides", func(t *testing.T) {
		t.Parallel()

		topic := &forum.Topic{Sticky: true}
		sticky := false
		forum.UpdateTopicParams{Sticky: &sticky}.ApplyTo(topic)
		require.False(t, topic.Sticky)
	})
}
