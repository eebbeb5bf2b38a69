package sanitizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRecognizer 模拟实体识别器
type MockRecognizer struct {
	mock.Mock
}

func (m *MockRecognizer) EnsureReady(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRecognizer) Recognize(ctx context.Context, text string) ([]Entity, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Entity), args.Error(1)
}

func (m *MockRecognizer) Ready() bool {
	args := m.Called()
	return args.Bool(0)
}

func TestSanitizePatterns_Email(t *testing.T) {
	out := SanitizePatterns("Contact alice.wang@example.com for details")
	assert.Equal(t, "Contact [EMAIL] for details", out)
}

func TestSanitizePatterns_Domain(t *testing.T) {
	assert.Equal(t, "Visit [DOMAIN] now", SanitizePatterns("Visit https://portal.example.com/login now"))
	assert.Equal(t, "Visit [DOMAIN] now", SanitizePatterns("Visit www.example.org now"))
	assert.Equal(t, "Visit [DOMAIN] now", SanitizePatterns("Visit example.io now"))
}

func TestSanitizePatterns_Phone(t *testing.T) {
	out := SanitizePatterns("Call 010-12345678 or 138 00138000")
	assert.NotContains(t, out, "12345678")
	assert.Contains(t, out, "[PHONE]")
}

func TestSanitizePatterns_EmailBeforeDomain(t *testing.T) {
	// 邮箱必须整体变成[EMAIL]，不能只命中其中的域名部分
	out := SanitizePatterns("mail me: bob@corp.example.com")
	assert.Equal(t, "mail me: [EMAIL]", out)
	assert.NotContains(t, out, "[DOMAIN]")
}

func TestSanitizePatterns_Idempotent(t *testing.T) {
	text := "alice@example.com visited www.example.com and called 021-88886666"
	once := SanitizePatterns(text)
	twice := SanitizePatterns(once)
	assert.Equal(t, once, twice)
}

func TestSanitize_ReplacesEntities(t *testing.T) {
	recognizer := new(MockRecognizer)
	recognizer.On("Recognize", mock.Anything, mock.Anything).Return([]Entity{
		{Text: "Alice Wang", Category: CategoryPerson},
		{Text: "Acme Corp", Category: CategoryOrg},
		{Text: "Shanghai", Category: CategoryGPE},
	}, nil)

	s := New(recognizer)
	out, err := s.Sanitize(context.Background(), "Alice Wang works at Acme Corp in Shanghai.")
	require.NoError(t, err)
	assert.Equal(t, "[PERSON] works at [ORG] in [GPE].", out)
	recognizer.AssertExpectations(t)
}

func TestSanitize_Idempotent(t *testing.T) {
	recognizer := new(MockRecognizer)
	// 第二轮识别已脱敏文本，不再返回实体
	recognizer.On("Recognize", mock.Anything, "Alice works at [ORG].").Return([]Entity{
		{Text: "Alice", Category: CategoryPerson},
	}, nil).Once()
	recognizer.On("Recognize", mock.Anything, mock.Anything).Return([]Entity{}, nil)

	s := New(recognizer)
	once, err := s.Sanitize(context.Background(), "Alice works at [ORG].")
	require.NoError(t, err)
	assert.Equal(t, "[PERSON] works at [ORG].", once)

	twice, err := s.Sanitize(context.Background(), once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestSanitize_SkipsBracketedEntitySpans(t *testing.T) {
	recognizer := new(MockRecognizer)
	// 识别器偶尔会把占位符当作实体返回，必须跳过，否则破坏幂等性
	recognizer.On("Recognize", mock.Anything, mock.Anything).Return([]Entity{
		{Text: "[ORG]", Category: CategoryOrg},
		{Text: "  ", Category: CategoryPerson},
	}, nil)

	s := New(recognizer)
	out, err := s.Sanitize(context.Background(), "Report from [ORG] headquarters.")
	require.NoError(t, err)
	assert.Equal(t, "Report from [ORG] headquarters.", out)
}

func TestSanitize_RetriesAfterProvisioning(t *testing.T) {
	recognizer := new(MockRecognizer)
	recognizer.On("Recognize", mock.Anything, mock.Anything).
		Return(nil, assert.AnError).Once()
	recognizer.On("EnsureReady", mock.Anything).Return(nil).Once()
	recognizer.On("Recognize", mock.Anything, mock.Anything).Return([]Entity{
		{Text: "Beijing", Category: CategoryGPE},
	}, nil).Once()

	s := New(recognizer)
	out, err := s.Sanitize(context.Background(), "Weather in Beijing")
	require.NoError(t, err)
	assert.Equal(t, "Weather in [GPE]", out)
	recognizer.AssertExpectations(t)
}

func TestSanitize_FailsWhenProvisioningFails(t *testing.T) {
	recognizer := new(MockRecognizer)
	recognizer.On("Recognize", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()
	recognizer.On("EnsureReady", mock.Anything).Return(assert.AnError).Once()

	s := New(recognizer)
	_, err := s.Sanitize(context.Background(), "some text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "实体识别资源不可用")
}

func TestSanitize_FailsWhenRetryFails(t *testing.T) {
	recognizer := new(MockRecognizer)
	recognizer.On("Recognize", mock.Anything, mock.Anything).Return(nil, assert.AnError).Twice()
	recognizer.On("EnsureReady", mock.Anything).Return(nil).Once()

	s := New(recognizer)
	_, err := s.Sanitize(context.Background(), "some text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "实体识别失败")
}

func TestParseEntities_ToleratesSurroundingProse(t *testing.T) {
	content := `Here are the entities:
[{"text": "Acme", "label": "ORG"}, {"text": "Bob", "label": "PERSON"}]
Done.`
	entities, err := parseEntities(content)
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "Acme", entities[0].Text)
	assert.Equal(t, CategoryOrg, entities[0].Category)
}

func TestParseEntities_FiltersInvalidCategories(t *testing.T) {
	content := `[{"text": "Acme", "label": "ORG"}, {"text": "2024", "label": "DATE"}, {"text": "", "label": "PERSON"}]`
	entities, err := parseEntities(content)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Acme", entities[0].Text)
}

func TestParseEntities_RejectsNonArray(t *testing.T) {
	_, err := parseEntities("I could not find any entities.")
	assert.Error(t, err)
}
