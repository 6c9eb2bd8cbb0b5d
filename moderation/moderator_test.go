package moderation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "message-room/errors"
)

func Test_Censor_Replaces_Banned_Words(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"duck", "frog"}, '*')
	req.NoError(err)

	req.Equal("what the ****", moderator.Censor("what the duck"))
	req.Equal("**** and ****", moderator.Censor("duck and frog"))
}

func Test_Censor_Is_Case_Insensitive(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"duck"}, '*')
	req.NoError(err)

	req.Equal("What The ****!", moderator.Censor("What The DuCk!"))
}

func Test_Censor_Keeps_Clean_Content_Untouched(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"duck"}, '*')
	req.NoError(err)

	req.Equal("hello world", moderator.Censor("hello world"))
	req.Equal("", moderator.Censor(""))
}

func Test_Censor_Handles_Non_Ascii_Content(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"merde"}, '*')
	req.NoError(err)

	// Rune positions, not byte positions, decide the replaced span
	req.Equal("héhé ***** héhé", moderator.Censor("héhé merde héhé"))
}

func Test_NewModerator_Needs_At_Least_One_Word(t *testing.T) {
	req := require.New(t)

	_, err := NewModerator(nil, '*')
	req.ErrorIs(err, apperrors.ErrEmptyWords)
}

func Test_ReadWordsFile_Skips_Blanks_And_Comments(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "words.txt")
	content := "# banned words\nduck\n\n  frog  \n# trailing\n"
	req.NoError(os.WriteFile(path, []byte(content), 0o600))

	words, err := ReadWordsFile(path)
	req.NoError(err)
	req.Equal([]string{"duck", "frog"}, words)
}
