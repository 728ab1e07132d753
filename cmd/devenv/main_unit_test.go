//go:build unit

package main

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/animalet/devenv/pkg/config/secrets"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"
)

var _ = Describe("Command-Line Argument Parsing", func() {
	Describe("parseFlags", func() {
		It("should parse valid config flag", func() {
			opts, err := parseFlags([]string{"--config", "/path/to/config.yaml"})
			Expect(err).NotTo(HaveOccurred())
			Expect(opts.configPath).To(Equal("/path/to/config.yaml"))
			Expect(opts.debug).To(BeFalse())
			Expect(opts.dryRun).To(BeFalse())
			Expect(opts.showHelp).To(BeFalse())
			Expect(opts.showVersion).To(BeFalse())
		})

		It("should parse file, source and dry-run flags", func() {
			opts, err := parseFlags([]string{"-file", ".env.local", "-source", "/apps/nextjs", "-dry-run", "-debug"})
			Expect(err).NotTo(HaveOccurred())
			Expect(opts.file).To(Equal(".env.local"))
			Expect(opts.source).To(Equal("/apps/nextjs"))
			Expect(opts.dryRun).To(BeTrue())
			Expect(opts.debug).To(BeTrue())
		})

		It("should parse version flag", func() {
			opts, err := parseFlags([]string{"--version"})
			Expect(err).NotTo(HaveOccurred())
			Expect(opts.showVersion).To(BeTrue())
		})

		It("should handle -h flag (standard help)", func() {
			opts, err := parseFlags([]string{"-h"})
			Expect(err).NotTo(HaveOccurred())
			Expect(opts.showHelp).To(BeTrue())
		})

		It("should return error for invalid flag", func() {
			_, err := parseFlags([]string{"--invalid-flag"})
			Expect(err).To(HaveOccurred())
		})

		It("should reject positional arguments", func() {
			_, err := parseFlags([]string{"extra"})
			Expect(err).To(MatchError(ContainSubstring("unexpected arguments")))
		})

		It("should handle no flags", func() {
			opts, err := parseFlags([]string{})
			Expect(err).NotTo(HaveOccurred())
			Expect(opts.configPath).To(BeEmpty())
			Expect(opts.file).To(BeEmpty())
		})
	})
})

var _ = Describe("Usage Message", func() {
	It("should list every option", func() {
		var buf bytes.Buffer
		printUsage(&buf)

		output := buf.String()
		Expect(output).To(ContainSubstring("Usage: devenv"))
		for _, flag := range []string{"--config", "--file", "--source", "--dry-run", "--debug", "--version", "--help"} {
			Expect(output).To(ContainSubstring(flag))
		}
		Expect(output).To(ContainSubstring(".env.development.local"))
	})
})

var _ = Describe("Logging Setup", func() {
	It("should set debug level when debug mode is enabled", func() {
		setupLogging(true, GinkgoWriter)
		Expect(zerolog.GlobalLevel()).To(Equal(zerolog.DebugLevel))
	})

	It("should set info level when debug mode is disabled", func() {
		setupLogging(false, GinkgoWriter)
		Expect(zerolog.GlobalLevel()).To(Equal(zerolog.InfoLevel))
	})
})

var _ = Describe("runWithArgs", func() {
	var stdout, stderr *bytes.Buffer

	BeforeEach(func() {
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
		GinkgoT().Setenv("AUTH_SECRET", "")
		GinkgoT().Setenv("DATABASE_URL", "")
	})

	writeConfig := func(content string) string {
		path := filepath.Join(GinkgoT().TempDir(), "devenv.yaml")
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	staticConfig := `devenv:
  source: /apps/nextjs/scripts/write-dev-env.js
  readme: packages/auth/README.md
  entries:
    - key: AUTH_SECRET
      fallback: static
      value: not-a-real-secret
    - key: DATABASE_URL
      fallback: static
      value: postgres://dev@localhost:5432/app
`

	It("should show help message", func() {
		Expect(runWithArgs([]string{"--help"}, stdout, stderr)).To(Equal(exitSuccess))
		Expect(stdout.String()).To(ContainSubstring("Usage: devenv"))
	})

	It("should show version", func() {
		Expect(runWithArgs([]string{"--version"}, stdout, stderr)).To(Equal(exitSuccess))
		Expect(stdout.String()).To(ContainSubstring("version"))
	})

	It("should fail with invalid flag", func() {
		Expect(runWithArgs([]string{"--invalid"}, stdout, stderr)).To(Equal(exitError))
		Expect(stderr.String()).To(ContainSubstring("Usage: devenv"))
	})

	It("should fail with invalid config path", func() {
		Expect(runWithArgs([]string{"--config", "/nonexistent/config.yaml"}, stdout, stderr)).To(Equal(exitError))
	})

	It("should fail with an invalid pipeline", func() {
		path := writeConfig("devenv:\n  entries:\n    - key: NOT_A_KEY\n      fallback: port\n")
		Expect(runWithArgs([]string{"--config", path}, stdout, stderr)).To(Equal(exitError))
	})

	It("should print the merged file on dry run", func() {
		target := filepath.Join(GinkgoT().TempDir(), ".env.development.local")
		code := runWithArgs([]string{"--config", writeConfig(staticConfig), "--file", target, "--dry-run"}, stdout, stderr)
		Expect(code).To(Equal(exitSuccess))
		Expect(stdout.String()).To(Equal(
			"# >>> devenv /apps/nextjs/scripts/write-dev-env.js\n" +
				"# Generated, see packages/auth/README.md\n" +
				"AUTH_SECRET=not-a-real-secret\n" +
				"DATABASE_URL=postgres://dev@localhost:5432/app\n" +
				"# <<< devenv /apps/nextjs/scripts/write-dev-env.js\n"))

		_, err := os.Stat(target)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("should write the env file", func() {
		target := filepath.Join(GinkgoT().TempDir(), ".env.development.local")
		Expect(os.WriteFile(target, []byte("DEBUG=1\n"), 0600)).To(Succeed())

		code := runWithArgs([]string{"--config", writeConfig(staticConfig), "--file", target, "--source", "/custom"}, stdout, stderr)
		Expect(code).To(Equal(exitSuccess))

		content, err := os.ReadFile(target)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(HavePrefix("DEBUG=1\n\n# >>> devenv /custom\n"))
		Expect(string(content)).To(ContainSubstring("AUTH_SECRET=not-a-real-secret\n"))
	})

	It("should keep values already in the environment", func() {
		GinkgoT().Setenv("AUTH_SECRET", "from-env")
		target := filepath.Join(GinkgoT().TempDir(), ".env.development.local")
		code := runWithArgs([]string{"--config", writeConfig(staticConfig), "--file", target, "--dry-run"}, stdout, stderr)
		Expect(code).To(Equal(exitSuccess))
		Expect(stdout.String()).To(ContainSubstring("AUTH_SECRET=from-env\n"))
	})

	It("should report write failures with the file path", func() {
		target := filepath.Join(GinkgoT().TempDir(), "missing", ".env.development.local")
		code := runWithArgs([]string{"--config", writeConfig(staticConfig), "--file", target}, stdout, stderr)
		Expect(code).To(Equal(exitError))
		Expect(stderr.String()).To(ContainSubstring("Failed to write dev env variables to " + target))
	})

	It("should fail when a fallback fails", func() {
		path := writeConfig("devenv:\n  entries:\n    - key: AUTH_SECRET\n      fallback: secret\n      ref: nowhere:AUTH_SECRET\n")
		code := runWithArgs([]string{"--config", path, "--dry-run"}, stdout, stderr)
		Expect(code).To(Equal(exitError))
		Expect(stdout.String()).To(BeEmpty())
	})

	It("should resolve secrets from the file provider", func() {
		dir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "auth_secret"), []byte("from-file\n"), 0600)).To(Succeed())
		DeferCleanup(secrets.Unregister, "file")

		path := writeConfig("file_resolver:\n  secrets_dir: " + dir + "\n" +
			"devenv:\n  entries:\n    - key: AUTH_SECRET\n      fallback: secret\n      ref: file:auth_secret\n")
		code := runWithArgs([]string{"--config", path, "--dry-run"}, stdout, stderr)
		Expect(code).To(Equal(exitSuccess))
		Expect(stdout.String()).To(ContainSubstring("AUTH_SECRET=from-file\n"))
	})
})
