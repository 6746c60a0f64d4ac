package service

import (
	"fmt"

	"github.com/go-ldap/ldap/v3"

	"gh-integration/internal/pkg/config"
	pkgErrors "gh-integration/pkg/errors"
)

// LDAPEntry LDAP 中查到的用户
type LDAPEntry struct {
	Username    string
	Email       string
	DisplayName string
}

type LDAPService interface {
	Authenticate(username, password string) (*LDAPEntry, error)
}

type ldapService struct {
	cfg *config.LDAPConfig
}

func NewLDAPService(cfg *config.LDAPConfig) LDAPService {
	return &ldapService{
		cfg: cfg,
	}
}

func (s *ldapService) Authenticate(username, password string) (*LDAPEntry, error) {
	if !s.cfg.Enabled {
		return nil, pkgErrors.New(pkgErrors.CodeAuthError, "LDAP认证未启用")
	}
	// 空密码会被部分服务器当作匿名绑定
	if password == "" {
		return nil, pkgErrors.ErrInvalidCredentials
	}

	conn, err := s.connect()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	entry, err := s.searchUser(conn, username)
	if err != nil {
		return nil, err
	}

	// 以用户身份绑定校验密码
	if err := conn.Bind(entry.DN, password); err != nil {
		return nil, pkgErrors.ErrInvalidCredentials
	}

	attrs := s.cfg.Attributes
	result := &LDAPEntry{
		Username:    entry.GetAttributeValue(attrs.Username),
		Email:       entry.GetAttributeValue(attrs.Email),
		DisplayName: entry.GetAttributeValue(attrs.DisplayName),
	}
	if result.Username == "" {
		result.Username = username
	}
	return result, nil
}

func (s *ldapService) connect() (*ldap.Conn, error) {
	address := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var (
		conn *ldap.Conn
		err  error
	)
	if s.cfg.UseSSL {
		conn, err = ldap.DialURL("ldaps://" + address)
	} else {
		conn, err = ldap.DialURL("ldap://" + address)
	}
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeAuthError, "LDAP连接失败", err)
	}

	// 服务账号绑定后才能搜索
	if err := conn.Bind(s.cfg.BindDN, s.cfg.BindPassword); err != nil {
		conn.Close()
		return nil, pkgErrors.Wrap(pkgErrors.CodeAuthError, "LDAP绑定失败", err)
	}
	return conn, nil
}

func (s *ldapService) searchUser(conn *ldap.Conn, username string) (*ldap.Entry, error) {
	attrs := s.cfg.Attributes
	req := ldap.NewSearchRequest(
		s.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		2, // 多于一条即视为冲突
		0,
		false,
		fmt.Sprintf(s.cfg.UserFilter, ldap.EscapeFilter(username)),
		[]string{"dn", attrs.Username, attrs.Email, attrs.DisplayName},
		nil,
	)

	result, err := conn.Search(req)
	if err != nil && !ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
		return nil, pkgErrors.Wrap(pkgErrors.CodeAuthError, "LDAP搜索失败", err)
	}

	switch {
	case result == nil || len(result.Entries) == 0:
		return nil, pkgErrors.ErrInvalidCredentials
	case len(result.Entries) > 1:
		return nil, pkgErrors.New(pkgErrors.CodeAuthError, "找到多个匹配的用户")
	}
	return result.Entries[0], nil
}
