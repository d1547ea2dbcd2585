package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims representa o token de acesso emitido pelo serviço de autenticação.
type Claims struct {
	UserID    int      `json:"user_id,omitempty"`
	Username  string   `json:"username,omitempty"`
	Email     string   `json:"email,omitempty"`
	CompanyID int      `json:"company_id,omitempty"`
	Role      string   `json:"role,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// SubjectID devolve o subject padrão ou, na falta dele, o user_id.
func (c *Claims) SubjectID() string {
	if c.Subject != "" {
		return c.Subject
	}
	if c.UserID > 0 {
		return strconv.Itoa(c.UserID)
	}
	return ""
}

// AllRoles une o papel único e a lista de papéis, sem duplicatas.
func (c *Claims) AllRoles() []string {
	seen := make(map[string]struct{}, len(c.Roles)+1)
	out := make([]string, 0, len(c.Roles)+1)
	for _, role := range append([]string{c.Role}, c.Roles...) {
		role = strings.TrimSpace(role)
		if role == "" {
			continue
		}
		key := strings.ToLower(role)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, role)
	}
	return out
}

// JWTManager valida tokens HS256 com o segredo compartilhado.
type JWTManager struct {
	secret    []byte
	accessTTL time.Duration
}

// NewJWTManager cria o gerenciador com segredo e TTL configurados.
func NewJWTManager(secret string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), accessTTL: accessTTL}
}

// GenerateAccessToken emite um token local; usado pelo devtoken e pelos testes.
func (m *JWTManager) GenerateAccessToken(userID int, role string, roles []string) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		UserID: userID,
		Role:   role,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseAndValidate verifica assinatura e expiração.
func (m *JWTManager) ParseAndValidate(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("token inválido")
	}
	if claims.SubjectID() == "" {
		return nil, errors.New("token sem subject")
	}

	return claims, nil
}
