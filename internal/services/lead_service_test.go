package services_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/maestriajurisp/leads-api/config"
	"github.com/maestriajurisp/leads-api/internal/models"
	"github.com/maestriajurisp/leads-api/internal/services"
	"github.com/maestriajurisp/leads-api/internal/validation"
	"github.com/maestriajurisp/leads-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Level: "warn", Environment: "development"}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			ContactConfirmationPath:  "/obrigado",
			SubmissionTimeoutSeconds: 5,
		},
		Forms: config.FormsConfig{
			EbookPhone:         config.PhonePolicy{Required: false, CountryCode: "auto"},
			ContactPhone:       config.PhonePolicy{Required: true, CountryCode: ""},
			DefaultCountryCode: "55",
		},
	}
}

type fixture struct {
	store     *MockLeadStore
	captcha   *MockCaptchaVerifier
	notifier  *MockLeadNotifier
	downloads *MockDownloadLinkIssuer
	service   *services.LeadService
}

func newFixture(cfg *config.Config) *fixture {
	f := &fixture{
		store:     new(MockLeadStore),
		captcha:   new(MockCaptchaVerifier),
		notifier:  new(MockLeadNotifier),
		downloads: new(MockDownloadLinkIssuer),
	}
	f.service = services.NewLeadService(cfg, f.store, f.captcha, f.notifier, f.downloads)
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	f.store.AssertExpectations(t)
	f.captcha.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
	f.downloads.AssertExpectations(t)
}

func ebookPayload() models.Payload {
	return models.Payload{
		"name":      "Ana Silva",
		"email":     "ana@example.com",
		"phone":     "11987654321",
		"areaOfLaw": "Civil",
	}
}

func contactPayload() models.Payload {
	return models.Payload{
		"name":       "Ana Silva",
		"email":      "ana@example.com",
		"phone":      "11987654321",
		"areaOfLaw":  "Civil",
		"howHeard":   "Instagram",
		"numLawyers": "2 a 5",
	}
}

func TestLeadService_SubmitEbookLead_Success(t *testing.T) {
	f := newFixture(testConfig())
	ctx := context.Background()

	f.captcha.On("Enabled").Return(false)
	f.store.On("Create", mock.Anything, mock.MatchedBy(func(l *models.Lead) bool {
		return l.Form == models.FormEbook &&
			l.Name == "Ana Silva" &&
			l.Phone == "+5511987654321" &&
			l.ID != "" &&
			l.ClientIP == "203.0.113.7"
	})).Return(nil).Once()
	f.notifier.On("Dispatch", ctx, mock.AnythingOfType("*models.Lead")).Return().Once()
	f.downloads.On("IssueDownloadURL", mock.AnythingOfType("*models.Lead")).
		Return("https://maestriajurisp.com.br/api/v1/ebook/download?token=t", nil).Once()

	result := f.service.SubmitEbookLead(ctx, ebookPayload(), models.RequestMeta{ClientIP: "203.0.113.7"})

	require.True(t, result.Success)
	assert.Contains(t, result.Message, "Ana Silva")
	assert.Equal(t, "Obrigado, Ana Silva! Seus dados foram registrados. Seu download deve iniciar em breve.", result.Message)
	assert.NotEmpty(t, result.LeadID)
	assert.Equal(t, "https://maestriajurisp.com.br/api/v1/ebook/download?token=t", result.DownloadURL)
	assert.Empty(t, result.Kind)
	assert.Nil(t, result.Fields)
	assert.Nil(t, result.Issues)
	f.assertExpectations(t)
}

func TestLeadService_SubmitContactLead_Success(t *testing.T) {
	f := newFixture(testConfig())

	f.captcha.On("Enabled").Return(false)
	f.store.On("Create", mock.Anything, mock.MatchedBy(func(l *models.Lead) bool {
		return l.HowHeard == "Instagram" && l.NumLawyers == "2 a 5" && l.Phone == "+5511987654321"
	})).Return(nil).Once()
	f.notifier.On("Dispatch", mock.Anything, mock.Anything).Return().Once()

	result := f.service.SubmitContactLead(context.Background(), contactPayload(), models.RequestMeta{})

	require.True(t, result.Success)
	assert.Equal(t, "Obrigado, Ana Silva! Recebemos sua solicitação e entraremos em contato em breve.", result.Message)
	assert.Equal(t, "/obrigado", result.RedirectURL)
	assert.Empty(t, result.DownloadURL)
	f.assertExpectations(t)
}

func TestLeadService_RejectsCraftedPayloadWithoutSideEffect(t *testing.T) {
	f := newFixture(testConfig())
	f.captcha.On("Enabled").Return(false)

	payload := ebookPayload()
	payload["areaOfLaw"] = "NotARealArea"

	result := f.service.SubmitEbookLead(context.Background(), payload, models.RequestMeta{})

	require.False(t, result.Success)
	assert.Equal(t, models.KindValidationFailed, result.Kind)
	assert.Equal(t, validation.MsgInvalidDataOnServer, result.Message)
	require.Len(t, result.Issues, 1)
	assert.True(t, strings.HasPrefix(result.Issues[0], "areaOfLaw: "))
	assert.Equal(t, "NotARealArea", result.Fields["areaOfLaw"])
	f.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestLeadService_ValidationIssuesFollowFieldOrder(t *testing.T) {
	f := newFixture(testConfig())
	f.captcha.On("Enabled").Return(false)

	payload := models.Payload{"name": "A", "email": "bad-email", "phone": "123", "areaOfLaw": "", "recaptchaToken": "secret"}
	result := f.service.SubmitContactLead(context.Background(), payload, models.RequestMeta{})

	require.False(t, result.Success)
	require.Len(t, result.Issues, 6)
	for i, field := range models.FormContact.Fields() {
		assert.True(t, strings.HasPrefix(result.Issues[i], field+": "), "issue %d: %s", i, result.Issues[i])
	}
	assert.Equal(t, "123", result.Fields["phone"])
	assert.NotContains(t, result.Fields, "recaptchaToken")
}

func TestLeadService_SideEffectFailureIsNeverSuccess(t *testing.T) {
	f := newFixture(testConfig())
	f.captcha.On("Enabled").Return(false)
	f.store.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	payload := contactPayload()
	result := f.service.SubmitContactLead(context.Background(), payload, models.RequestMeta{})

	require.False(t, result.Success)
	assert.Equal(t, models.KindSideEffectFailed, result.Kind)
	assert.Equal(t, services.MsgSideEffectFailed, result.Message)
	assert.Empty(t, result.LeadID)
	assert.Empty(t, result.RedirectURL)
	assert.Equal(t, map[string]string(payload), result.Fields)
	f.store.AssertNumberOfCalls(t, "Create", 3)
	f.notifier.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestLeadService_CaptchaFailure(t *testing.T) {
	f := newFixture(testConfig())
	f.captcha.On("Enabled").Return(true)
	f.captcha.On("Verify", mock.Anything, "bad-token").Return(errors.New("rejected")).Once()

	payload := ebookPayload()
	payload["recaptchaToken"] = "bad-token"
	result := f.service.SubmitEbookLead(context.Background(), payload, models.RequestMeta{})

	require.False(t, result.Success)
	assert.Equal(t, models.KindCaptchaFailed, result.Kind)
	assert.Equal(t, "Ana Silva", result.Fields["name"])
	assert.NotContains(t, result.Fields, "recaptchaToken")
	f.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestLeadService_CaptchaPasses(t *testing.T) {
	f := newFixture(testConfig())
	f.captcha.On("Enabled").Return(true)
	f.captcha.On("Verify", mock.Anything, "good-token").Return(nil).Once()
	f.store.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.notifier.On("Dispatch", mock.Anything, mock.Anything).Return().Once()
	f.downloads.On("IssueDownloadURL", mock.Anything).Return("https://x/download", nil).Once()

	payload := ebookPayload()
	payload["recaptchaToken"] = "good-token"
	result := f.service.SubmitEbookLead(context.Background(), payload, models.RequestMeta{})

	assert.True(t, result.Success)
	f.assertExpectations(t)
}

func TestLeadService_DownloadLinkFailureKeepsSuccess(t *testing.T) {
	f := newFixture(testConfig())
	f.captcha.On("Enabled").Return(false)
	f.store.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.notifier.On("Dispatch", mock.Anything, mock.Anything).Return().Once()
	f.downloads.On("IssueDownloadURL", mock.Anything).Return("", errors.New("signing failed")).Once()

	result := f.service.SubmitEbookLead(context.Background(), ebookPayload(), models.RequestMeta{})

	assert.True(t, result.Success)
	assert.Empty(t, result.DownloadURL)
	f.assertExpectations(t)
}

func TestLeadService_SanitizesMarkup(t *testing.T) {
	f := newFixture(testConfig())
	f.captcha.On("Enabled").Return(false)

	var stored *models.Lead
	f.store.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*models.Lead)
	}).Return(nil).Once()
	f.notifier.On("Dispatch", mock.Anything, mock.Anything).Return().Once()

	payload := contactPayload()
	payload["name"] = "Ana <b>D'Ávila</b>"
	result := f.service.SubmitContactLead(context.Background(), payload, models.RequestMeta{})

	require.True(t, result.Success)
	require.NotNil(t, stored)
	assert.Equal(t, "Ana D'Ávila", stored.Name)
}

func TestLeadService_InternationalEbookPhone(t *testing.T) {
	f := newFixture(testConfig())
	f.captcha.On("Enabled").Return(false)

	var stored *models.Lead
	f.store.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*models.Lead)
	}).Return(nil).Once()
	f.notifier.On("Dispatch", mock.Anything, mock.Anything).Return().Once()
	f.downloads.On("IssueDownloadURL", mock.Anything).Return("u", nil).Once()

	payload := ebookPayload()
	payload["phone"] = "+351 (21) 98765-4321"
	result := f.service.SubmitEbookLead(context.Background(), payload, models.RequestMeta{})

	require.True(t, result.Success)
	assert.Equal(t, "+35121987654321", stored.Phone)
}

func TestLeadService_OptionalPhoneMayBeEmpty(t *testing.T) {
	f := newFixture(testConfig())
	f.captcha.On("Enabled").Return(false)
	f.store.On("Create", mock.Anything, mock.MatchedBy(func(l *models.Lead) bool { return l.Phone == "" })).Return(nil).Once()
	f.notifier.On("Dispatch", mock.Anything, mock.Anything).Return().Once()
	f.downloads.On("IssueDownloadURL", mock.Anything).Return("u", nil).Once()

	payload := ebookPayload()
	payload["phone"] = ""
	result := f.service.SubmitEbookLead(context.Background(), payload, models.RequestMeta{})

	assert.True(t, result.Success)
	f.assertExpectations(t)
}

func TestLeadService_Options(t *testing.T) {
	f := newFixture(testConfig())

	opts := f.service.Options()

	assert.Equal(t, models.AreasOfLaw, opts.AreasOfLaw)
	assert.Equal(t, models.ReferralSources, opts.ReferralSources)
	assert.Equal(t, models.FirmSizes, opts.FirmSizes)
	assert.Equal(t, models.PhoneFieldOptions{Required: false, International: true, CountryCode: "auto"}, opts.Phone[models.FormEbook])
	assert.Equal(t, models.PhoneFieldOptions{Required: true, International: false}, opts.Phone[models.FormContact])
}

func TestLeadService_RejectsPhoneTheMaskWouldShorten(t *testing.T) {
	tests := []struct {
		name   string
		submit func(*services.LeadService, models.Payload) *models.SubmissionResult
		base   models.Payload
		phone  string
	}{
		{
			name:   "domestic extra digits",
			submit: submitContact,
			base:   contactPayload(),
			phone:  "11987654321999999",
		},
		{
			name:   "domestic letters",
			submit: submitContact,
			base:   contactPayload(),
			phone:  "11x98765x4321",
		},
		{
			name:   "international extra digits",
			submit: submitEbook,
			base:   ebookPayload(),
			phone:  "+55 (11) 98765-43219",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(testConfig())
			f.captcha.On("Enabled").Return(false)

			payload := tt.base
			payload["phone"] = tt.phone
			result := tt.submit(f.service, payload)

			require.False(t, result.Success)
			assert.Equal(t, models.KindValidationFailed, result.Kind)
			require.Len(t, result.Issues, 1)
			assert.True(t, strings.HasPrefix(result.Issues[0], "phone: "))
			assert.Equal(t, tt.phone, result.Fields["phone"])
			f.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			f.assertExpectations(t)
		})
	}
}

func TestLeadService_NameIsCheckedAfterMarkupIsStripped(t *testing.T) {
	f := newFixture(testConfig())
	f.captcha.On("Enabled").Return(false)

	payload := contactPayload()
	payload["name"] = "<script>x</script>"
	result := f.service.SubmitContactLead(context.Background(), payload, models.RequestMeta{})

	require.False(t, result.Success)
	assert.Equal(t, models.KindValidationFailed, result.Kind)
	assert.Equal(t, []string{"name: " + validation.MsgNameTooShort}, result.Issues)
	assert.Equal(t, "<script>x</script>", result.Fields["name"])
	f.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func submitEbook(s *services.LeadService, p models.Payload) *models.SubmissionResult {
	return s.SubmitEbookLead(context.Background(), p, models.RequestMeta{})
}

func submitContact(s *services.LeadService, p models.Payload) *models.SubmissionResult {
	return s.SubmitContactLead(context.Background(), p, models.RequestMeta{})
}
