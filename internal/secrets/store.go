// internal/secrets/store.go
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 16
	keySize    = 32
	pbkdf2Iter = 100_000

	// EnvMasterPassphrase는 암호화 키 유도에 사용하는 환경변수입니다.
	EnvMasterPassphrase = "AUTOTRADE_MASTER_PASSPHRASE"
)

// Store는 단일 인스턴스 운영을 위한 암호화 로컬 시크릿 저장소입니다.
// 파일은 salt || nonce || ciphertext 형식으로 저장됩니다.
type Store struct {
	filePath   string
	passphrase string
}

// NewStore는 시크릿 저장소를 생성합니다.
// 마스터 패스프레이즈가 설정되어 있지 않으면 에러를 반환합니다.
func NewStore(filePath string) (*Store, error) {
	passphrase := os.Getenv(EnvMasterPassphrase)
	if passphrase == "" {
		return nil, fmt.Errorf("시크릿 암호화를 위해 %s 환경변수가 필요합니다", EnvMasterPassphrase)
	}

	if dir := filepath.Dir(filePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("시크릿 디렉토리 생성 실패: %w", err)
		}
	}

	return &Store{filePath: filePath, passphrase: passphrase}, nil
}

// Save는 시크릿 맵을 암호화하여 파일에 저장합니다.
func (s *Store) Save(payload map[string]string) error {
	blob, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("시크릿 직렬화 실패: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("salt 생성 실패: %w", err)
	}

	gcm, err := s.newGCM(salt)
	if err != nil {
		return err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("nonce 생성 실패: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, blob, nil)

	out := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)

	if err := os.WriteFile(s.filePath, out, 0o600); err != nil {
		return fmt.Errorf("시크릿 파일 저장 실패: %w", err)
	}
	return nil
}

// Load는 암호화된 시크릿 파일을 복호화합니다.
// 파일이 없으면 빈 맵을 반환합니다.
func (s *Store) Load() (map[string]string, error) {
	raw, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("시크릿 파일 읽기 실패: %w", err)
	}

	if len(raw) < saltSize {
		return nil, fmt.Errorf("시크릿 파일이 손상되었습니다")
	}
	salt := raw[:saltSize]

	gcm, err := s.newGCM(salt)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(raw) < saltSize+nonceSize {
		return nil, fmt.Errorf("시크릿 파일이 손상되었습니다")
	}
	nonce := raw[saltSize : saltSize+nonceSize]
	sealed := raw[saltSize+nonceSize:]

	blob, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("시크릿 복호화 실패: %w", err)
	}

	var payload map[string]string
	if err := json.Unmarshal(blob, &payload); err != nil {
		return nil, fmt.Errorf("시크릿 역직렬화 실패: %w", err)
	}
	return payload, nil
}

// MaskedView는 값을 마스킹한 시크릿 맵을 반환합니다. 운영 화면 표시용입니다.
func (s *Store) MaskedView() (map[string]string, error) {
	payload, err := s.Load()
	if err != nil {
		return nil, err
	}

	masked := make(map[string]string, len(payload))
	for k, v := range payload {
		masked[k] = mask(v)
	}
	return masked, nil
}

func (s *Store) newGCM(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(s.passphrase), salt, pbkdf2Iter, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("암호화 블록 생성 실패: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("GCM 모드 생성 실패: %w", err)
	}
	return gcm, nil
}

func mask(value string) string {
	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}
