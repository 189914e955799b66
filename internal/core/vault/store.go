// Package vault is the ephemeral secret store behind ::cp and ::decrypt.
//
// A secret is sealed with ChaCha20-Poly1305 under a fresh 256-bit key. The
// store keeps only the ciphertext and nonce; the key is handed to the caller
// once, base64-encoded, and is never retained. At most one secret is live at
// a time and it is destroyed after a fixed timeout, after a successful
// recall, or on Clear.
package vault

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/Lin-Jiong-HDU/gsh/internal/secure"
)

// DefaultTimeout is how long a stored secret stays recallable.
const DefaultTimeout = 30 * time.Second

var (
	// ErrNoSecret is returned by Recall when nothing is stored, including
	// after expiry.
	ErrNoSecret = errors.New("no secret stored")
	// ErrDecryptFailed is returned when the key does not authenticate the
	// stored ciphertext.
	ErrDecryptFailed = errors.New("decryption failed: wrong key or corrupted data")
	// ErrEmptySecret is returned when Store is given nothing to store.
	ErrEmptySecret = errors.New("no content to store")
)

// Options configures a Store.
type Options struct {
	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration
	// Clock defaults to SystemClock.
	Clock Clock
	// Sink, when set, receives the sealed envelope.
	Sink Sink
	// AssociatedData is bound into every seal, e.g. the session id.
	AssociatedData []byte
	Logger         *slog.Logger
}

// sealed is the only state kept for a live secret.
type sealed struct {
	ciphertext []byte
	nonce      []byte
	expires    time.Time
}

// Store holds at most one sealed secret. All methods are safe for
// concurrent use; the destruction timer takes the same lock.
type Store struct {
	mu      sync.Mutex
	timeout time.Duration
	clock   Clock
	sink    Sink
	ad      []byte
	logger  *slog.Logger

	secret *sealed
	timer  Timer
	gen    uint64
}

// NewStore creates an empty store.
func NewStore(opts Options) *Store {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		timeout: opts.Timeout,
		clock:   opts.Clock,
		sink:    opts.Sink,
		ad:      append([]byte(nil), opts.AssociatedData...),
		logger:  opts.Logger,
	}
}

// Timeout returns the destruction window.
func (s *Store) Timeout() time.Duration {
	return s.timeout
}

// Store seals plaintext, replacing any previous secret, and returns the
// base64 key. plaintext is wiped. The caller must Destroy the returned key
// as soon as it has been shown.
func (s *Store) Store(plaintext []byte) (*secure.Buffer, error) {
	defer secure.Wipe(plaintext)

	if len(plaintext) == 0 {
		return nil, ErrEmptySecret
	}

	key := make([]byte, chacha20poly1305.KeySize)
	defer secure.Wipe(key)
	nonce := make([]byte, chacha20poly1305.NonceSize)

	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	ciphertext := aead.Seal(nil, nonce, plaintext, s.ad)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sink != nil {
		if err := s.sink.Write(envelope(nonce, ciphertext)); err != nil {
			secure.Wipe(ciphertext)
			secure.Wipe(nonce)
			s.logger.Warn("secret sink write failed", "error", err)
			return nil, err
		}
	}

	s.clearLocked(false)
	s.gen++
	gen := s.gen
	s.secret = &sealed{
		ciphertext: ciphertext,
		nonce:      nonce,
		expires:    s.clock.Now().Add(s.timeout),
	}
	s.timer = s.clock.AfterFunc(s.timeout, func() { s.expire(gen) })

	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(key)))
	base64.StdEncoding.Encode(encoded, key)

	s.logger.Debug("secret stored", "timeout", s.timeout)
	return secure.FromBytes(encoded), nil
}

// Recall decrypts the live secret with the base64 key. On success the
// secret is destroyed and the plaintext returned; the caller must Destroy
// it. Any failure returns ErrNoSecret or ErrDecryptFailed and never a
// partial plaintext.
func (s *Store) Recall(encodedKey []byte) (*secure.Buffer, error) {
	encodedKey = bytes.TrimSpace(encodedKey)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.secret == nil {
		return nil, ErrNoSecret
	}
	if !s.clock.Now().Before(s.secret.expires) {
		s.clearLocked(true)
		return nil, ErrNoSecret
	}

	key := make([]byte, base64.StdEncoding.DecodedLen(len(encodedKey)))
	defer secure.Wipe(key)

	n, err := base64.StdEncoding.Decode(key, encodedKey)
	if err != nil || n != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: invalid key format", ErrDecryptFailed)
	}

	aead, err := chacha20poly1305.New(key[:n])
	if err != nil {
		return nil, ErrDecryptFailed
	}
	plaintext, err := aead.Open(nil, s.secret.nonce, s.secret.ciphertext, s.ad)
	if err != nil {
		s.logger.Debug("secret recall rejected")
		return nil, ErrDecryptFailed
	}

	s.clearLocked(true)
	s.logger.Debug("secret recalled")
	return secure.FromBytes(plaintext), nil
}

// Live reports whether a recallable secret is held.
func (s *Store) Live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secret != nil && s.clock.Now().Before(s.secret.expires)
}

// Clear destroys the live secret, if any.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(true)
}

// expire is the destruction timer callback. A timer armed for a superseded
// secret does nothing.
func (s *Store) expire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.secret == nil {
		return
	}
	s.logger.Debug("secret expired")
	s.clearLocked(true)
}

// clearLocked wipes the sealed secret and stops its timer. Caller holds mu.
func (s *Store) clearLocked(clearSink bool) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.secret == nil {
		return
	}
	secure.Wipe(s.secret.ciphertext)
	secure.Wipe(s.secret.nonce)
	s.secret = nil

	if clearSink && s.sink != nil {
		if err := s.sink.Clear(); err != nil {
			s.logger.Warn("secret sink clear failed", "error", err)
		}
	}
}
