package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/healthymentoring/backend/apps/api/echo"
	"github.com/healthymentoring/backend/core"
	"github.com/healthymentoring/backend/core/session"
	"github.com/healthymentoring/backend/core/timezone"
	"github.com/healthymentoring/backend/core/user"
	dummymail "github.com/healthymentoring/backend/services/email/dummy"
	dummynotif "github.com/healthymentoring/backend/services/notification/dummy"
	dummydb "github.com/healthymentoring/backend/storage/database/dummy"
	testutil "github.com/healthymentoring/backend/tests"
)

var (
	app      echoapi.Server
	usrRepo  user.Repository
	sessRepo session.Repository
	notifier *dummynotif.Notifier

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	wd, err := os.Getwd()
	if err != nil {
		fmt.Printf("os.Getwd(): %v", err)
		os.Exit(1)
	}
	core.Conf = &core.Config{
		AppName:         "Healthy Mentoring",
		TestMode:        true,
		SecretKey:       "secret",
		FrontendBaseURL: "https://healthymentoring.test",
		DefaultTimezone: "UTC",
		WorkDir:         filepath.Join(wd, "..", "..", "..", ".."),
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		},
	}

	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		fmt.Printf("dummydb.Open(): %v", err)
		os.Exit(1)
	}
	usrRepo = dummydb.NewUserRepository(db)
	sessRepo = dummydb.NewSessionRepository(db)
	tzRepo := dummydb.NewTimezoneRepository(db)

	// set up services
	logger := testutil.Logger{}
	mailSvc := dummymail.NewService(core.Conf.AppName, "noreply@healthymentoring.test")
	notifier = dummynotif.NewNotifier()
	usrSvc := user.NewServiceMock(usrRepo, mailSvc, core.Conf)
	sessSvc := session.NewService(sessRepo, usrRepo, notifier, core.Conf, logger)
	tzSvc := timezone.NewService(
		tzRepo,
		notifier,
		func(ctx context.Context, profileID uuid.UUID) ([]timezone.UpcomingSession, error) {
			sessions, err := sessSvc.QueryUpcomingByParty(ctx, profileID)
			if err != nil {
				return nil, err
			}
			upcoming := make([]timezone.UpcomingSession, 0, len(sessions))
			for _, sess := range sessions {
				upcoming = append(upcoming, timezone.UpcomingSession{Title: sess.Title, StartAt: sess.StartAt})
			}
			return upcoming, nil
		},
		func(ctx context.Context, profileID uuid.UUID) (core.Recipient, error) {
			usr, err := usrSvc.GetByID(ctx, profileID)
			if err != nil {
				return core.Recipient{}, err
			}
			return core.Recipient{ID: usr.ID, Name: usr.Name, Email: usr.Email}, nil
		},
		core.Conf,
		logger,
	)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	core.ParseEmailTemplates(logger)

	// set up server
	app = echoapi.NewServer(echoapi.ServerDeps{
		Conf:           core.Conf,
		Logger:         logger,
		UserSvc:        usrSvc,
		TimezoneSvc:    tzSvc,
		SessionSvc:     sessSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})

	os.Exit(m.Run())
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()

	claims := echoapi.GetUserClaims(usr)
	token, err := echoapi.GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
