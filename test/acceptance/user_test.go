// ABOUTME: Acceptance tests for clenv user genpass
// ABOUTME: Checks the credentials file and the password policy
package acceptance_test

import (
	"encoding/base64"
	"os"
	"regexp"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/davidsonoda/clenv/test/helpers"
)

var _ = Describe("clenv user genpass", func() {
	var env *helpers.TestEnv

	BeforeEach(func() {
		env = helpers.NewTestEnv(binaryPath)
	})

	It("writes a private credentials file the server can check", func() {
		result := env.Run("user", "genpass", "alice", "Secret123")

		Expect(result.ExitCode).To(Equal(0), result.Stderr)
		Expect(result.Stdout).To(ContainSubstring(`"username": "alice"`))
		Expect(result.Stdout).To(ContainSubstring("please send the config file to server admin"))

		path := env.ProfilePath("server-alice")
		info, err := os.Stat(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(0600)))

		content := env.ReadFile("clearml-server-alice.conf")
		Expect(content).To(ContainSubstring(`username: "alice"`))

		m := regexp.MustCompile(`password: "([^"]+)"`).FindStringSubmatch(content)
		Expect(m).To(HaveLen(2))
		hash, err := base64.StdEncoding.DecodeString(m[1])
		Expect(err).NotTo(HaveOccurred())
		Expect(bcrypt.CompareHashAndPassword(hash, []byte("Secret123"))).To(Succeed())
	})

	It("reads the password from stdin when it is not given", func() {
		result := env.RunWithInput("Secret123\n", "user", "genpass", "bob")

		Expect(result.ExitCode).To(Equal(0), result.Stderr)
		Expect(result.Stdout).To(ContainSubstring("Create a password for the user"))
		Expect(env.FileExists("clearml-server-bob.conf")).To(BeTrue())
	})

	It("rejects a weak password without writing anything", func() {
		result := env.Run("user", "genpass", "alice", "short")

		Expect(result.ExitCode).To(Equal(1))
		Expect(result.Stderr).To(ContainSubstring("password"))
		Expect(env.FileExists("clearml-server-alice.conf")).To(BeFalse())
	})

	It("rejects a username that cannot name a file", func() {
		result := env.Run("user", "genpass", "a/b", "Secret123")

		Expect(result.ExitCode).To(Equal(1))
		Expect(result.Stderr).To(ContainSubstring("invalid username"))
	})
})
