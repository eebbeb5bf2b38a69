package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aihub/docchat-go/internal/answer"
)

func TestSession_HistoryAppendOnly(t *testing.T) {
	s := New("s1")
	s.AppendRecord(&answer.AnswerRecord{Question: "q1", Answer: "a1"})
	s.AppendRecord(&answer.AnswerRecord{Question: "q2", Answer: "a2"})

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, "q1", history[0].Question)
	assert.Equal(t, "q2", history[1].Question)

	// 返回的是副本，调用方修改不影响会话内部状态
	history[0] = nil
	assert.Equal(t, "q1", s.History()[0].Question)
}

func TestSession_TrackIngestResetsHistoryOnNewContent(t *testing.T) {
	s := New("s1")
	s.TrackIngest([]byte("doc one"), "cache-1", "preview one")
	s.AppendRecord(&answer.AnswerRecord{Question: "q1"})

	// 内容变化时历史清空
	s.TrackIngest([]byte("doc two"), "cache-2", "preview two")
	assert.Empty(t, s.History())
	assert.Equal(t, "cache-2", s.CacheName())
	assert.Equal(t, "preview two", s.TextPreview())
}

func TestSession_TrackIngestKeepsHistoryOnSameContent(t *testing.T) {
	s := New("s1")
	s.TrackIngest([]byte("same doc"), "cache-1", "preview")
	s.AppendRecord(&answer.AnswerRecord{Question: "q1"})

	// 重复摄取相同内容不清空历史
	s.TrackIngest([]byte("same doc"), "cache-1", "preview")
	assert.Len(t, s.History(), 1)
}

func TestSession_UseCacheResetsHistoryOnSwitch(t *testing.T) {
	s := New("s1")
	s.UseCache("cache-a")
	s.AppendRecord(&answer.AnswerRecord{Question: "q1"})

	s.UseCache("cache-b")
	assert.Empty(t, s.History())
	assert.Equal(t, "cache-b", s.CacheName())

	// 切换到同一个缓存不清空
	s.AppendRecord(&answer.AnswerRecord{Question: "q2"})
	s.UseCache("cache-b")
	assert.Len(t, s.History(), 1)
}

func TestFingerprint_Deterministic(t *testing.T) {
	assert.Equal(t, Fingerprint([]byte("abc")), Fingerprint([]byte("abc")))
	assert.NotEqual(t, Fingerprint([]byte("abc")), Fingerprint([]byte("abd")))
}

func TestManager_GetOrCreate(t *testing.T) {
	m := NewManager()

	s1 := m.GetOrCreate("alpha")
	s2 := m.GetOrCreate("alpha")
	assert.Same(t, s1, s2)

	s3 := m.GetOrCreate("beta")
	assert.NotSame(t, s1, s3)

	// 空ID归一化为default
	d1 := m.GetOrCreate("")
	d2 := m.GetOrCreate("default")
	assert.Same(t, d1, d2)
}
