// ABOUTME: Tests for the profile service used by commands
// ABOUTME: Covers opening, naming the untitled profile and reading profiles
package profile_test

import (
	"errors"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/davidsonoda/clenv/internal/hocon"
	"github.com/davidsonoda/clenv/internal/profile"
)

var _ = Describe("Service", func() {
	var home string

	BeforeEach(func() {
		home = GinkgoT().TempDir()
	})

	open := func(opts profile.Options) *profile.Service {
		if opts.HomeDir == "" {
			opts.HomeDir = home
		}
		svc, err := profile.Open(opts)
		Expect(err).NotTo(HaveOccurred())
		return svc
	}

	Describe("Open", func() {
		It("requires a home directory", func() {
			_, err := profile.Open(profile.Options{})
			Expect(err).To(HaveOccurred())
		})

		It("persists the reconciled index next to the profiles", func() {
			writeFile(home, "clearml.conf", defaultConf)
			svc := open(profile.Options{})

			Expect(svc.Index().Path()).To(Equal(filepath.Join(home, ".clenv-config-index.json")))
			Expect(svc.Index().Path()).To(BeAnExistingFile())
			Expect(svc.Index().IsInitialized()).To(BeFalse())
		})

		It("does not write the index when a profile is corrupt", func() {
			writeFile(home, "clearml.conf", defaultConf)
			bad := writeFile(home, "clearml-bad.conf", "api {\n")

			_, err := profile.Open(profile.Options{HomeDir: home})

			Expect(errors.Is(err, profile.ErrCorruptProfile)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring(bad))
			Expect(filepath.Join(home, ".clenv-config-index.json")).NotTo(BeAnExistingFile())
		})
	})

	Describe("EnsureInitialized", func() {
		BeforeEach(func() {
			writeFile(home, "clearml.conf", defaultConf)
		})

		It("names the untitled profile with the answer", func() {
			svc := open(profile.Options{})

			named, err := svc.EnsureInitialized(func(string) (string, error) { return " research ", nil })

			Expect(err).NotTo(HaveOccurred())
			Expect(named).To(BeTrue())
			Expect(svc.Index().IsActive("research")).To(BeTrue())
		})

		It("takes the suggested name for an empty answer", func() {
			svc := open(profile.Options{})
			var suggested string

			_, err := svc.EnsureInitialized(func(s string) (string, error) {
				suggested = s
				return "", nil
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(suggested).To(Equal(profile.DefaultName))
			Expect(svc.Index().IsActive(profile.DefaultName)).To(BeTrue())
		})

		It("suggests the configured default name", func() {
			svc := open(profile.Options{DefaultName: "main"})
			Expect(svc.SuggestedName()).To(Equal("main"))

			_, err := svc.EnsureInitialized(func(string) (string, error) { return "", nil })
			Expect(err).NotTo(HaveOccurred())
			Expect(svc.Index().IsActive("main")).To(BeTrue())
		})

		It("does not ask once the profile is named", func() {
			first := open(profile.Options{})
			_, err := first.EnsureInitialized(func(string) (string, error) { return "prod", nil })
			Expect(err).NotTo(HaveOccurred())

			second := open(profile.Options{})
			named, err := second.EnsureInitialized(func(string) (string, error) {
				Fail("asked for a name twice")
				return "", nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(named).To(BeFalse())
			Expect(second.Index().IsActive("prod")).To(BeTrue())
		})

		It("returns the prompt error", func() {
			svc := open(profile.Options{})
			cancelled := errors.New("cancelled")

			_, err := svc.EnsureInitialized(func(string) (string, error) { return "", cancelled })

			Expect(err).To(MatchError(cancelled))
			Expect(svc.Index().IsInitialized()).To(BeFalse())
		})

		It("rejects a name that cannot be stored", func() {
			svc := open(profile.Options{})

			_, err := svc.EnsureInitialized(func(string) (string, error) { return "../x", nil })

			Expect(errors.Is(err, profile.ErrInvalidName)).To(BeTrue())
		})
	})

	Context("with named profiles", func() {
		var svc *profile.Service

		BeforeEach(func() {
			writeFile(home, "clearml.conf", defaultConf)
			writeFile(home, "clearml-dev.conf", devConf)
			svc = open(profile.Options{BackupDir: filepath.Join(home, ".clenv", "backups")})
			_, err := svc.EnsureInitialized(func(string) (string, error) { return "", nil })
			Expect(err).NotTo(HaveOccurred())
		})

		It("lists the active profile first", func() {
			entries := svc.List()
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].Name).To(Equal("default"))
			Expect(entries[0].Active).To(BeTrue())
			Expect(entries[1].Name).To(Equal("dev"))
			Expect(entries[1].Active).To(BeFalse())
		})

		It("shows the active profile by default", func() {
			content, p, err := svc.Show("")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Name).To(Equal("default"))
			Expect(content).To(Equal(defaultConf))
		})

		It("shows a stored profile", func() {
			content, _, err := svc.Show("dev")
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(Equal(devConf))
		})

		It("reads values by dotted key", func() {
			Expect(svc.Value("", "sdk.aws.region")).To(Equal("eu-west-1"))
			Expect(svc.Value("dev", "api.api_server")).To(Equal("https://dev-api.example.com"))

			_, err := svc.Value("dev", "sdk.aws.region")
			Expect(errors.Is(err, hocon.ErrKeyNotFound)).To(BeTrue())
		})

		It("runs the profile operations through the index", func() {
			Expect(svc.Create("staging", "dev")).To(Succeed())
			Expect(svc.Rename("staging", "qa")).To(Succeed())
			Expect(svc.Checkout("qa")).To(Succeed())
			Expect(svc.Reinit("qa", "api", "api {\n  api_server: \"https://qa\"\n}\n")).To(Succeed())
			Expect(svc.Delete("dev")).To(Succeed())

			Expect(svc.Value("", "api.api_server")).To(Equal("https://qa"))
			Expect(names(svc.Index().NonActive())).To(ConsistOf("default"))
		})
	})

	It("reports a missing active profile", func() {
		writeFile(home, "clearml-dev.conf", devConf)
		svc := open(profile.Options{})

		_, err := svc.Resolve("")
		Expect(err).To(MatchError(profile.ErrNoActiveProfile))

		p, err := svc.Resolve("dev")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Name).To(Equal("dev"))
	})
})
