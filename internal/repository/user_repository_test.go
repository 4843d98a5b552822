package repository

import (
	"testing"

	rediskey "github.com/bhavyaajainn/chatly/consts/redisKey"

	"github.com/stretchr/testify/assert"
)

func TestDisplayNameKeysToInvalidate(t *testing.T) {
	t.Run("rename_covers_old_and_new", func(t *testing.T) {
		keys := displayNameKeysToInvalidate("alice", "alice2")
		assert.Equal(t, []string{
			rediskey.DisplayNameKey("alice"),
			rediskey.DisplayNameKey("alice2"),
		}, keys)
	})

	t.Run("blank_names_skipped", func(t *testing.T) {
		// 只改头像时没有旧昵称，不产生要清的 key
		assert.Empty(t, displayNameKeysToInvalidate("", ""))
		assert.Equal(t, []string{rediskey.DisplayNameKey("bob")}, displayNameKeysToInvalidate("", "bob"))
	})

	t.Run("same_name_deduplicated", func(t *testing.T) {
		keys := displayNameKeysToInvalidate("alice", "alice")
		assert.Equal(t, []string{rediskey.DisplayNameKey("alice")}, keys)
	})
}
