package session

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/aihub/docchat-go/internal/answer"
)

// Session 显式的会话上下文，承载问答历史和当前索引名。
// 核心管道不持有任何全局会话状态，保证可重入、可独立测试。
type Session struct {
	ID string

	mu          sync.Mutex
	history     []*answer.AnswerRecord
	cacheName   string
	fingerprint string
	textPreview string
}

// New 创建会话
func New(id string) *Session {
	return &Session{ID: id}
}

// AppendRecord 追加问答记录，历史只增不改
func (s *Session) AppendRecord(record *answer.AnswerRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, record)
}

// History 返回问答历史的副本，从旧到新排列
func (s *Session) History() []*answer.AnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*answer.AnswerRecord, len(s.history))
	copy(out, s.history)
	return out
}

// CacheName 当前会话绑定的索引缓存名
func (s *Session) CacheName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cacheName
}

// TextPreview 最近一次摄取的脱敏文本预览
func (s *Session) TextPreview() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.textPreview
}

// TrackIngest 记录一次成功摄取。文档内容发生变化时清空问答历史，
// 与上一次相同的文档保留历史。
func (s *Session) TrackIngest(data []byte, cacheName, textPreview string) {
	fingerprint := Fingerprint(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fingerprint != fingerprint {
		s.history = nil
	}
	s.fingerprint = fingerprint
	s.cacheName = cacheName
	s.textPreview = textPreview
}

// UseCache 将会话切换到一个已持久化的缓存
func (s *Session) UseCache(cacheName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cacheName != cacheName {
		s.history = nil
	}
	s.cacheName = cacheName
}

// Fingerprint 计算文档内容指纹
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Manager 按ID管理会话
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager 创建会话管理器
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// GetOrCreate 获取或创建会话
func (m *Manager) GetOrCreate(id string) *Session {
	if id == "" {
		id = "default"
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := New(id)
	m.sessions[id] = s
	return s
}
