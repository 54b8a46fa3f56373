// ABOUTME: Tests for the profile index: loading, reconciling and every mutation
// ABOUTME: Checks both the files in the home directory and the persisted document
package profile_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/davidsonoda/clenv/internal/backup"
	"github.com/davidsonoda/clenv/internal/hocon"
	"github.com/davidsonoda/clenv/internal/profile"
)

var _ = Describe("Index", func() {
	var (
		home   string
		layout profile.Layout
	)

	BeforeEach(func() {
		home = GinkgoT().TempDir()
		layout = profile.NewLayout(home)
	})

	Describe("Load", func() {
		var ix *profile.Index

		BeforeEach(func() {
			ix = profile.NewIndex(filepath.Join(home, "index.json"), layout)
		})

		It("starts empty without an index file", func() {
			Expect(ix.Load()).To(Succeed())
			Expect(ix.ListAll()).To(BeEmpty())
		})

		It("lists no backups when they are disabled", func() {
			Expect(ix.Backups("dev")).To(BeEmpty())
		})

		DescribeTable("treats unusable content as empty",
			func(content string) {
				writeFile(home, "index.json", content)
				Expect(ix.Load()).To(Succeed())
				Expect(ix.ListAll()).To(BeEmpty())
			},
			Entry("empty file", ""),
			Entry("whitespace", "  \n"),
			Entry("malformed JSON", `{"profiles": [`),
			Entry("two active profiles", `{"profiles":{"active":[
				{"profile_name":"a","file_path":"/x/clearml.conf"},
				{"profile_name":"b","file_path":"/x/clearml.conf"}],"non_active":[]}}`),
		)

		It("reads the persisted document", func() {
			writeFile(home, "index.json", `{"profiles":{"active":[{"profile_name":"prod","file_path":"/x/clearml.conf"}]}}`)

			Expect(ix.Load()).To(Succeed())
			active, ok := ix.Active()
			Expect(ok).To(BeTrue())
			Expect(active.Name).To(Equal("prod"))
			Expect(ix.NonActive()).To(BeEmpty())
		})
	})

	Describe("Save", func() {
		It("writes indented JSON in the index format", func() {
			writeFile(home, "clearml.conf", defaultConf)
			writeFile(home, "clearml-dev.conf", devConf)
			ix := openIndex(home)

			content := readFile(ix.Path())
			Expect(content).To(ContainSubstring(`"profiles": {`))
			Expect(content).To(ContainSubstring(`"profile_name": "untitled"`))
			Expect(content).To(ContainSubstring(`"file_path": "` + layout.NamedPath("dev") + `"`))
			Expect(content).To(HaveSuffix("}\n"))
		})

		It("writes empty lists rather than null", func() {
			ix := openIndex(home)
			Expect(readFile(ix.Path())).To(ContainSubstring(`"non_active": []`))
		})
	})

	Describe("Reconcile", func() {
		It("takes membership from disk", func() {
			writeFile(home, "clearml.conf", defaultConf)
			writeFile(home, "clearml-dev.conf", devConf)
			writeFile(home, ".clenv-config-index.json", `{"profiles":{"active":[],"non_active":[
				{"profile_name":"gone","file_path":"`+layout.NamedPath("gone")+`"}]}}`)

			ix := openIndex(home)

			Expect(names(ix.NonActive())).To(ConsistOf("dev"))
			active, ok := ix.Active()
			Expect(ok).To(BeTrue())
			Expect(active).To(Equal(profile.Profile{Name: profile.Untitled, FilePath: layout.ActivePath()}))
			Expect(ix.IsInitialized()).To(BeFalse())
		})

		It("keeps the persisted active profile name", func() {
			writeFile(home, "clearml.conf", defaultConf)
			writeFile(home, ".clenv-config-index.json", `{"profiles":{"active":[
				{"profile_name":"prod","file_path":"`+layout.ActivePath()+`"}],"non_active":[]}}`)

			ix := openIndex(home)

			Expect(ix.IsActive("prod")).To(BeTrue())
			Expect(ix.IsInitialized()).To(BeTrue())
		})

		It("rejects an active name also used by a stored profile", func() {
			writeFile(home, "clearml.conf", defaultConf)
			writeFile(home, "clearml-prod.conf", devConf)
			ix := profile.NewIndex(filepath.Join(home, "index.json"), layout)
			writeFile(home, "index.json", `{"profiles":{"active":[
				{"profile_name":"prod","file_path":"`+layout.ActivePath()+`"}],"non_active":[]}}`)
			Expect(ix.Load()).To(Succeed())

			scan, err := profile.Scan(layout)
			Expect(err).NotTo(HaveOccurred())
			err = ix.Reconcile(scan)

			Expect(errors.Is(err, profile.ErrConflict)).To(BeTrue())
			var conflict *profile.ConflictError
			Expect(errors.As(err, &conflict)).To(BeTrue())
			Expect(conflict.File).To(Equal(layout.NamedPath("prod")))
			Expect(ix.IsActive("prod")).To(BeTrue(), "document is unchanged on conflict")
		})

		It("is stable when run twice", func() {
			writeFile(home, "clearml.conf", defaultConf)
			writeFile(home, "clearml-dev.conf", devConf)
			first := openIndex(home).Document()
			second := openIndex(home).Document()
			Expect(second).To(Equal(first))
		})
	})

	Context("with an initialized index", func() {
		var ix *profile.Index

		BeforeEach(func() {
			writeFile(home, "clearml.conf", defaultConf)
			writeFile(home, "clearml-dev.conf", devConf)
			ix = openIndex(home)
			Expect(ix.Initialize("default")).To(Succeed())
		})

		Describe("Initialize", func() {
			It("names the untitled profile and persists it", func() {
				Expect(ix.IsActive("default")).To(BeTrue())
				Expect(ix.IsInitialized()).To(BeTrue())
				Expect(persisted(ix).Profiles.Active).To(Equal([]profile.Profile{
					{Name: "default", FilePath: layout.ActivePath()},
				}))
			})

			It("cannot run twice", func() {
				err := ix.Initialize("other")
				Expect(errors.Is(err, profile.ErrProfileNotFound)).To(BeTrue())
			})
		})

		Describe("Get", func() {
			It("finds active and stored profiles", func() {
				p, err := ix.Get("dev")
				Expect(err).NotTo(HaveOccurred())
				Expect(p.FilePath).To(Equal(layout.NamedPath("dev")))
				Expect(ix.Has("default")).To(BeTrue())
			})

			It("reports missing profiles by name", func() {
				_, err := ix.Get("nope")
				Expect(errors.Is(err, profile.ErrProfileNotFound)).To(BeTrue())
				Expect(err.Error()).To(Equal("profile nope does not exist"))
			})
		})

		It("lists the active profile first", func() {
			Expect(names(ix.ListAll())).To(Equal([]string{"default", "dev"}))
		})

		Describe("SwitchActive", func() {
			It("swaps the files and the index entries", func() {
				Expect(ix.SwitchActive("dev")).To(Succeed())

				Expect(readFile(layout.ActivePath())).To(Equal(devConf))
				Expect(readFile(layout.NamedPath("default"))).To(Equal(defaultConf))
				Expect(layout.NamedPath("dev")).NotTo(BeAnExistingFile())

				doc := persisted(ix)
				Expect(doc.Profiles.Active).To(Equal([]profile.Profile{{Name: "dev", FilePath: layout.ActivePath()}}))
				Expect(doc.Profiles.NonActive).To(Equal([]profile.Profile{{Name: "default", FilePath: layout.NamedPath("default")}}))
			})

			It("round trips back to the starting state", func() {
				before := ix.Document()
				Expect(ix.SwitchActive("dev")).To(Succeed())
				Expect(ix.SwitchActive("default")).To(Succeed())

				Expect(ix.Document()).To(Equal(before))
				Expect(readFile(layout.ActivePath())).To(Equal(defaultConf))
				Expect(readFile(layout.NamedPath("dev"))).To(Equal(devConf))
			})

			It("rejects the active profile", func() {
				err := ix.SwitchActive("default")
				Expect(errors.Is(err, profile.ErrAlreadyActive)).To(BeTrue())
			})

			It("rejects a missing profile without touching files", func() {
				err := ix.SwitchActive("nope")
				Expect(errors.Is(err, profile.ErrProfileNotFound)).To(BeTrue())
				Expect(readFile(layout.ActivePath())).To(Equal(defaultConf))
			})

			It("moves the incumbent back when the target cannot be moved", func() {
				Expect(os.Remove(layout.NamedPath("dev"))).To(Succeed())
				before := ix.Document()

				err := ix.SwitchActive("dev")

				var fileErr *profile.FileError
				Expect(errors.As(err, &fileErr)).To(BeTrue())
				Expect(readFile(layout.ActivePath())).To(Equal(defaultConf))
				Expect(layout.NamedPath("default")).NotTo(BeAnExistingFile())
				Expect(ix.Document()).To(Equal(before))
			})

			It("moves both files back when the index cannot be saved", func() {
				before := ix.Document()
				Expect(os.Remove(ix.Path())).To(Succeed())
				Expect(os.Mkdir(ix.Path(), 0755)).To(Succeed())

				err := ix.SwitchActive("dev")

				var fileErr *profile.FileError
				Expect(errors.As(err, &fileErr)).To(BeTrue())
				Expect(fileErr.Op).To(Equal(profile.OpWrite))
				Expect(readFile(layout.ActivePath())).To(Equal(defaultConf))
				Expect(readFile(layout.NamedPath("dev"))).To(Equal(devConf))
				Expect(layout.NamedPath("default")).NotTo(BeAnExistingFile())
				Expect(ix.Document()).To(Equal(before))
			})

			It("refuses to overwrite a stray file in the parking slot", func() {
				writeFile(home, "clearml-default.conf", devConf)

				err := ix.SwitchActive("dev")

				Expect(errors.Is(err, fs.ErrExist)).To(BeTrue())
				Expect(readFile(layout.ActivePath())).To(Equal(defaultConf))
				Expect(readFile(layout.NamedPath("default"))).To(Equal(devConf))
			})
		})

		Describe("Rename", func() {
			It("moves a stored profile's file", func() {
				Expect(ix.Rename("dev", "staging")).To(Succeed())

				Expect(layout.NamedPath("dev")).NotTo(BeAnExistingFile())
				Expect(readFile(layout.NamedPath("staging"))).To(Equal(devConf))
				Expect(persisted(ix).Profiles.NonActive).To(Equal([]profile.Profile{
					{Name: "staging", FilePath: layout.NamedPath("staging")},
				}))
			})

			It("renames the active profile in place", func() {
				Expect(ix.Rename("default", "main")).To(Succeed())

				Expect(ix.IsActive("main")).To(BeTrue())
				Expect(readFile(layout.ActivePath())).To(Equal(defaultConf))
				Expect(layout.NamedPath("main")).NotTo(BeAnExistingFile())
			})

			It("rejects a taken name", func() {
				err := ix.Rename("dev", "default")
				Expect(errors.Is(err, profile.ErrAlreadyExists)).To(BeTrue())
				Expect(readFile(layout.NamedPath("dev"))).To(Equal(devConf))
			})

			It("rejects an invalid name", func() {
				err := ix.Rename("dev", "a/b")
				Expect(errors.Is(err, profile.ErrInvalidName)).To(BeTrue())
			})

			It("rejects a missing profile", func() {
				err := ix.Rename("nope", "other")
				Expect(errors.Is(err, profile.ErrProfileNotFound)).To(BeTrue())
			})

			It("moves the file back when the index cannot be saved", func() {
				Expect(os.Remove(ix.Path())).To(Succeed())
				Expect(os.Mkdir(ix.Path(), 0755)).To(Succeed())

				Expect(ix.Rename("dev", "staging")).NotTo(Succeed())

				Expect(readFile(layout.NamedPath("dev"))).To(Equal(devConf))
				Expect(layout.NamedPath("staging")).NotTo(BeAnExistingFile())
				Expect(ix.Has("dev")).To(BeTrue())
			})
		})

		Describe("Create", func() {
			It("copies the active profile", func() {
				Expect(ix.Create("staging", "")).To(Succeed())

				Expect(readFile(layout.NamedPath("staging"))).To(Equal(defaultConf))
				Expect(names(persisted(ix).Profiles.NonActive)).To(ConsistOf("dev", "staging"))
				Expect(readFile(layout.ActivePath())).To(Equal(defaultConf))
			})

			It("copies a named base and keeps its permissions", func() {
				Expect(os.Chmod(layout.NamedPath("dev"), 0600)).To(Succeed())

				Expect(ix.Create("gpu", "dev")).To(Succeed())

				Expect(readFile(layout.NamedPath("gpu"))).To(Equal(devConf))
				info, err := os.Stat(layout.NamedPath("gpu"))
				Expect(err).NotTo(HaveOccurred())
				Expect(info.Mode().Perm()).To(Equal(os.FileMode(0600)))
			})

			It("rejects an existing name", func() {
				err := ix.Create("dev", "")
				Expect(errors.Is(err, profile.ErrAlreadyExists)).To(BeTrue())
				Expect(readFile(layout.NamedPath("dev"))).To(Equal(devConf))
			})

			It("rejects a missing base", func() {
				err := ix.Create("gpu", "nope")
				Expect(errors.Is(err, profile.ErrProfileNotFound)).To(BeTrue())
				Expect(layout.NamedPath("gpu")).NotTo(BeAnExistingFile())
			})

			It("does not replace a file that appeared on disk", func() {
				writeFile(home, "clearml-gpu.conf", devConf)

				err := ix.Create("gpu", "")

				var fileErr *profile.FileError
				Expect(errors.As(err, &fileErr)).To(BeTrue())
				Expect(fileErr.Op).To(Equal(profile.OpCopy))
				Expect(readFile(layout.NamedPath("gpu"))).To(Equal(devConf))
				Expect(ix.Has("gpu")).To(BeFalse())
			})
		})

		Describe("Delete", func() {
			It("removes a stored profile and keeps a backup", func() {
				Expect(ix.Delete("dev")).To(Succeed())

				Expect(layout.NamedPath("dev")).NotTo(BeAnExistingFile())
				Expect(persisted(ix).Profiles.NonActive).To(BeEmpty())

				backups, err := backup.ListProfileBackups(filepath.Join(home, ".clenv", "backups"), "dev")
				Expect(err).NotTo(HaveOccurred())
				Expect(backups).To(HaveLen(1))
				Expect(readFile(backups[0])).To(Equal(devConf))
				Expect(ix.Backups("dev")).To(Equal(backups))
			})

			It("refuses the active profile before touching files", func() {
				err := ix.Delete("default")

				Expect(errors.Is(err, profile.ErrActiveProfile)).To(BeTrue())
				Expect(readFile(layout.ActivePath())).To(Equal(defaultConf))
				Expect(filepath.Join(home, ".clenv", "backups")).NotTo(BeADirectory())
			})

			It("rejects a missing profile", func() {
				err := ix.Delete("nope")
				Expect(errors.Is(err, profile.ErrProfileNotFound)).To(BeTrue())
			})
		})

		Describe("ReinitializeSection", func() {
			const fragment = `api {
  api_server: "https://new-api.example.com"
  credentials {
    access_key: "NEWKEY"
  }
}
`

			It("replaces the section and keeps the others", func() {
				Expect(ix.ReinitializeSection("default", "api", fragment)).To(Succeed())

				tree, err := hocon.Load(layout.ActivePath())
				Expect(err).NotTo(HaveOccurred())
				Expect(hocon.Get(tree, "api.credentials.access_key")).To(Equal("NEWKEY"))
				Expect(hocon.Get(tree, "sdk.aws.region")).To(Equal("eu-west-1"))
				Expect(ix.Document().Profiles.Active[0].Name).To(Equal("default"))
			})

			It("backs up the previous content", func() {
				Expect(ix.ReinitializeSection("dev", "api", fragment)).To(Succeed())

				backups, err := ix.Backups("dev")
				Expect(err).NotTo(HaveOccurred())
				Expect(backups).To(HaveLen(1))
				Expect(readFile(backups[0])).To(Equal(devConf))
			})

			DescribeTable("wraps failures and leaves the file alone",
				func(raw string, cause error) {
					err := ix.ReinitializeSection("default", "api", raw)

					Expect(errors.Is(err, profile.ErrInvalidSectionConfig)).To(BeTrue())
					var sectionErr *profile.SectionConfigError
					Expect(errors.As(err, &sectionErr)).To(BeTrue())
					Expect(sectionErr.Profile).To(Equal("default"))
					Expect(sectionErr.Section).To(Equal("api"))
					if cause != nil {
						Expect(errors.Is(err, cause)).To(BeTrue())
					}
					Expect(readFile(layout.ActivePath())).To(Equal(defaultConf))
				},
				Entry("unparseable fragment", "api {\n  api_server: \"x\"\n", hocon.ErrParse),
				Entry("section missing", "sdk {\n  a: 1\n}\n", hocon.ErrKeyNotFound),
				Entry("section is a value", "api: 5\n", nil),
			)

			It("wraps a corrupt profile file", func() {
				writeFile(home, "clearml-dev.conf", "api {\n")

				err := ix.ReinitializeSection("dev", "api", fragment)

				Expect(errors.Is(err, profile.ErrInvalidSectionConfig)).To(BeTrue())
				Expect(errors.Is(err, hocon.ErrParse)).To(BeTrue())
			})

			It("rejects a missing profile", func() {
				err := ix.ReinitializeSection("nope", "api", fragment)
				Expect(errors.Is(err, profile.ErrProfileNotFound)).To(BeTrue())
			})
		})
	})

	It("creates from the active profile only when there is one", func() {
		writeFile(home, "clearml-dev.conf", devConf)
		ix := openIndex(home)

		Expect(ix.Create("gpu", "")).To(MatchError(profile.ErrNoActiveProfile))
		Expect(ix.Create("gpu", "dev")).To(Succeed())
	})

	It("reinitializes a clearml-init file and keeps its other sections", func() {
		writeFile(home, "clearml.conf", clearmlInitConf)
		ix := openIndex(home)
		original, err := hocon.Parse(clearmlInitConf)
		Expect(err).NotTo(HaveOccurred())

		pasted := `api {
    web_server: https://app.clear.ml/
    api_server: https://api.clear.ml
    files_server: https://files.clear.ml
    credentials {
        "access_key" = "PASTEDKEY"
        "secret_key" = "PASTEDSECRET"
    }
}
`
		Expect(ix.ReinitializeSection(profile.Untitled, "api", pasted)).To(Succeed())

		tree, err := hocon.Load(layout.ActivePath())
		Expect(err).NotTo(HaveOccurred())
		Expect(hocon.Get(tree, "api.credentials.access_key")).To(Equal("PASTEDKEY"))
		Expect(hocon.Get(tree, "api.web_server")).To(Equal("https://app.clear.ml/"))
		Expect(tree["sdk"]).To(Equal(original["sdk"]))
		Expect(hocon.Get(tree, "sdk.development.task_reuse_time_window_in_hours")).To(Equal(hocon.Literal("72.0")))
	})

	It("switches with no incumbent", func() {
		writeFile(home, "clearml-dev.conf", devConf)
		ix := openIndex(home)

		Expect(ix.SwitchActive("dev")).To(Succeed())

		Expect(readFile(layout.ActivePath())).To(Equal(devConf))
		Expect(ix.IsActive("dev")).To(BeTrue())
		Expect(ix.NonActive()).To(BeEmpty())
	})
})
