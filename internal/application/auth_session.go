package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/moonbix-cli/internal/domain"
	"github.com/bnema/moonbix-cli/internal/ports"
	"github.com/sirupsen/logrus"
)

type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticated
	StateProfiled
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateProfiled:
		return "profiled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type loginData struct {
	AccessToken string `json:"accessToken"`
}

type userInfoData struct {
	MetaInfo struct {
		TotalGrade                  float64 `json:"totalGrade"`
		TotalAttempts               int     `json:"totalAttempts"`
		ConsumedAttempts            int     `json:"consumedAttempts"`
		AttemptRefreshCountDownTime int64   `json:"attemptRefreshCountDownTime"`
	} `json:"metaInfo"`
}

// AuthSession owns the access token and latest profile of one account. It is
// not safe for concurrent use; one runner drives it sequentially.
type AuthSession struct {
	credential domain.Credential
	transport  ports.Transport
	clock      ports.Clock
	log        logrus.FieldLogger

	state   SessionState
	token   string
	profile domain.Profile
}

func NewAuthSession(credential domain.Credential, transport ports.Transport, clock ports.Clock, log logrus.FieldLogger) *AuthSession {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &AuthSession{
		credential: credential,
		transport:  transport,
		clock:      clock,
		log:        log,
	}
}

func (s *AuthSession) AccountName() domain.AccountName {
	return s.credential.Name
}

func (s *AuthSession) State() SessionState {
	return s.state
}

func (s *AuthSession) Token() string {
	return s.token
}

// Profile returns the last fetched profile; ok is false before the first refresh.
func (s *AuthSession) Profile() (domain.Profile, bool) {
	return s.profile, s.state == StateProfiled
}

func (s *AuthSession) Login(ctx context.Context) error {
	s.log.Info("auth: logging in")

	envelope, err := s.transport.Send(ctx, ports.EndpointLogin, "", loginRequest{
		QueryString: s.credential.LoginQuery,
		SocialType:  socialTypeTelegram,
	})
	if err != nil {
		return fmt.Errorf("get access token: %w: %w", domain.ErrAuth, err)
	}
	if !envelope.OK() {
		return &domain.RemoteError{Kind: domain.ErrAuth, Op: "get access token", Code: envelope.Code, Message: envelope.Message}
	}

	var data loginData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return fmt.Errorf("decode access token: %w: %w", domain.ErrAuth, err)
	}
	if strings.TrimSpace(data.AccessToken) == "" {
		return fmt.Errorf("get access token: %w: response missing accessToken", domain.ErrAuth)
	}

	s.token = data.AccessToken
	if s.state == StateUnauthenticated {
		s.state = StateAuthenticated
	}

	return nil
}

// RefreshProfile fetches account metadata and replaces the cached profile.
// announce only controls the summary log lines.
func (s *AuthSession) RefreshProfile(ctx context.Context, announce bool) (domain.Profile, error) {
	if s.state == StateUnauthenticated {
		return domain.Profile{}, fmt.Errorf("get user info: %w", domain.ErrNotAuthorized)
	}

	if announce {
		s.log.Info("auth: fetching user info")
	}

	envelope, err := s.transport.Send(ctx, ports.EndpointUserInfo, s.token, gameResource())
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get user info: %w: %w", domain.ErrAuth, err)
	}
	if !envelope.OK() {
		return domain.Profile{}, &domain.RemoteError{Kind: domain.ErrAuth, Op: "get user info", Code: envelope.Code, Message: envelope.Message}
	}

	var data userInfoData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return domain.Profile{}, fmt.Errorf("decode user info: %w: %w", domain.ErrAuth, err)
	}

	meta := data.MetaInfo
	s.profile = domain.NewProfile(domain.ProfileMeta{
		TotalGrade:       meta.TotalGrade,
		TotalAttempts:    meta.TotalAttempts,
		ConsumedAttempts: meta.ConsumedAttempts,
		RefreshCountdown: time.Duration(meta.AttemptRefreshCountDownTime) * time.Millisecond,
	}, s.clock.Now())
	s.state = StateProfiled

	if announce {
		s.log.Infof("balance: %v", s.profile.Balance)
		s.log.Infof("tickets available: %d", s.profile.TicketsAvailable)
		s.log.Infof("tickets refresh: %s", s.profile.RefreshMessage)
	}

	return s.profile, nil
}

// spendTicket records one successful submission and returns the remaining count.
func (s *AuthSession) spendTicket() int {
	if s.profile.TicketsAvailable > 0 {
		s.profile.TicketsAvailable--
	}
	return s.profile.TicketsAvailable
}
