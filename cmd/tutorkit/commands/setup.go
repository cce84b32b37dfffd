package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"tutorkit/pkg/auth"
	"tutorkit/pkg/store"
	"tutorkit/pkg/syllabus"
)

// demo accounts created by setup, matching the documented sample logins.
var sampleUsers = []struct {
	username, email, role, fullName string
}{
	{"teacher1", "teacher@example.com", store.RoleTeacher, "Dr. John Smith"},
	{"student1", "student1@example.com", store.RoleStudent, "Alice Johnson"},
	{"student2", "student2@example.com", store.RoleStudent, "Bob Wilson"},
}

const samplePassword = "password123"

func newSetupCmd() *cobra.Command {
	var syllabusFile string

	c := &cobra.Command{
		Use:   "setup",
		Short: "Initialize the database with sample users and an optional syllabus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.EnsureDirs(); err != nil {
				return err
			}
			db, err := store.Open(cfg.DatabasePath())
			if err != nil {
				return err
			}
			repo := store.NewRepository(db)
			defer repo.Close()

			var teacherID int64
			for _, sample := range sampleUsers {
				hash, err := auth.HashPassword(samplePassword)
				if err != nil {
					return err
				}
				id, err := repo.CreateUser(&store.User{
					Username:     sample.username,
					Email:        sample.email,
					PasswordHash: hash,
					Role:         sample.role,
					FullName:     sample.fullName,
				})
				switch {
				case errors.Is(err, store.ErrDuplicateUser):
					cmd.Printf("User %s already exists, skipping\n", sample.username)
					existing, err := repo.GetUserByUsername(sample.username)
					if err != nil {
						return err
					}
					id = existing.ID
				case err != nil:
					return err
				default:
					cmd.Printf("Created %s %q\n", sample.role, sample.username)
				}
				if sample.role == store.RoleTeacher && teacherID == 0 {
					teacherID = id
				}
			}

			if syllabusFile != "" {
				syl, err := syllabus.ParseFile(syllabusFile)
				if err != nil {
					return err
				}
				subjectID, err := syllabus.Import(repo, syl, teacherID)
				if err != nil {
					return err
				}
				cmd.Printf("Imported syllabus %q as subject %d\n", syl.Subject, subjectID)
			}

			cmd.Println("\nSample login credentials:")
			cmd.Println("Teacher - Username: teacher1, Password:", samplePassword)
			cmd.Println("Student - Username: student1, Password:", samplePassword)
			return nil
		},
	}

	c.Flags().StringVar(&syllabusFile, "syllabus", "", "YAML course outline to import for the sample teacher")
	return c
}
