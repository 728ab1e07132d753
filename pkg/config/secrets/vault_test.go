//go:build unit

package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Vault Secrets", func() {
	Context("VaultConfig Validate", func() {
		It("should return error if address is empty", func() {
			err := VaultConfig{Token: "token", Path: "secret/data/devenv"}.Validate()
			Expect(err).To(MatchError(ContainSubstring("Vault address is required")))
		})

		It("should return error if token is empty", func() {
			err := VaultConfig{Address: "http://localhost:8200", Path: "secret/data/devenv"}.Validate()
			Expect(err).To(MatchError(ContainSubstring("Vault token is required")))
		})

		It("should return error if path is empty", func() {
			err := VaultConfig{Address: "http://localhost:8200", Token: "token"}.Validate()
			Expect(err).To(MatchError(ContainSubstring("Vault path is required")))
		})

		It("should pass with valid config", func() {
			err := VaultConfig{Address: "http://localhost:8200", Token: "token", Path: "secret/data/devenv"}.Validate()
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Context("VaultConfig CreateClient", func() {
		It("should fail with invalid config", func() {
			_, err := VaultConfig{}.CreateClient()
			Expect(err).To(MatchError(ContainSubstring("invalid Vault configuration")))
		})

		It("should create a client with namespace", func() {
			client, err := VaultConfig{
				Address:   "http://localhost:8200",
				Token:     "token",
				Path:      "secret/data/devenv",
				Namespace: "team",
			}.CreateClient()
			Expect(err).NotTo(HaveOccurred())
			Expect(client.Token()).To(Equal("token"))
			Expect(client.Namespace()).To(Equal("team"))
		})
	})

	Context("VaultSecretLoader", func() {
		var (
			server *httptest.Server
			loader *VaultSecretLoader
		)

		newLoader := func(path string) *VaultSecretLoader {
			client, err := VaultConfig{Address: server.URL, Token: "dev-root-token", Path: path}.CreateClient()
			Expect(err).NotTo(HaveOccurred())
			return NewVaultSecretLoader(client, path)
		}

		BeforeEach(func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				switch r.URL.Path {
				case "/v1/secret/data/devenv":
					_, _ = w.Write([]byte(`{"data":{"data":{"AUTH_SECRET":"kv2-secret"},"metadata":{"version":1}}}`))
				case "/v1/secret-v1/devenv":
					_, _ = w.Write([]byte(`{"data":{"AUTH_SECRET":"kv1-secret"}}`))
				case "/v1/secret/data/broken":
					_, _ = w.Write([]byte(`{"data":{"data":"not-a-map"}}`))
				default:
					w.WriteHeader(http.StatusNotFound)
					_, _ = w.Write([]byte(`{"errors":[]}`))
				}
			}))
			loader = newLoader("secret/data/devenv")
		})

		AfterEach(func() {
			server.Close()
		})

		It("should read KV v2 secrets", func() {
			value, err := loader.Resolve(context.Background(), "AUTH_SECRET")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("kv2-secret"))
		})

		It("should read KV v1 secrets", func() {
			value, err := newLoader("secret-v1/devenv").Resolve(context.Background(), "AUTH_SECRET")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("kv1-secret"))
		})

		It("should report missing keys", func() {
			_, err := loader.Resolve(context.Background(), "MISSING")
			Expect(err).To(MatchError(ContainSubstring(`secret "MISSING" not found`)))
		})

		It("should report missing paths", func() {
			_, err := newLoader("secret/data/nonexistent").Resolve(context.Background(), "AUTH_SECRET")
			Expect(err).To(MatchError(ContainSubstring("no secret found")))
		})

		It("should reject malformed KV v2 payloads", func() {
			_, err := newLoader("secret/data/broken").Resolve(context.Background(), "AUTH_SECRET")
			Expect(err).To(MatchError(ContainSubstring("unexpected data format")))
		})

		It("should return Name", func() {
			Expect(loader.Name()).To(Equal("Vault"))
		})
	})
})
