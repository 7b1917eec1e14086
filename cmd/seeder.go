package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, _, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		if clearData {
			for _, table := range []string{"time_entry_audit_logs", "time_entries", "payroll_periods", "jobs", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		electricians := []struct {
			Email       string
			Name        string
			RegularRate string
			TravelRate  string
		}{
			{"marco@wattline.test", "Marco Reyes", "38.50", "25.00"},
			{"dana@wattline.test", "Dana Kowalski", "42.00", "42.00"},
			{"office@wattline.test", "Terry Whitfield", "55.00", "55.00"},
		}

		for _, u := range electricians {
			var exists int
			row := db.Raw("SELECT 1 FROM users WHERE email = ?", u.Email).Row()
			if err := row.Scan(&exists); err == nil {
				fmt.Printf("user %s already exists, skipping\n", u.Email)
				continue
			}

			if err := db.Exec(
				"INSERT INTO users (email, name, password_hash, regular_rate, travel_rate, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, true, now(), now())",
				u.Email, u.Name, string(hash), u.RegularRate, u.TravelRate).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Email, err)
			}
			fmt.Println("Seeded user:", u.Email)
		}

		jobs := []struct {
			Number string
			Title  string
		}{
			{"24-1017", "Riverside substation retrofit"},
			{"25-0032", "Hangar 3 lighting upgrade"},
			{"25-0104", "Mill Street service panel swap"},
		}

		for _, j := range jobs {
			var exists int
			row := db.Raw("SELECT 1 FROM jobs WHERE job_number = ?", j.Number).Row()
			if err := row.Scan(&exists); err == nil {
				continue
			}

			if err := db.Exec(
				"INSERT INTO jobs (job_number, title, status, created_at, updated_at) VALUES (?, ?, 'active', now(), now())",
				j.Number, j.Title).Error; err != nil {
				log.Fatalf("failed to insert job %s: %v", j.Number, err)
			}
			fmt.Println("Seeded job:", j.Number)
		}

		var marcoID, jobID int64
		if err := db.Raw("SELECT id FROM users WHERE email = ?", "marco@wattline.test").Row().Scan(&marcoID); err != nil {
			log.Fatalf("failed to lookup seeded user: %v", err)
		}
		if err := db.Raw("SELECT id FROM jobs WHERE job_number = ?", "24-1017").Row().Scan(&jobID); err != nil {
			log.Fatalf("failed to lookup seeded job: %v", err)
		}

		var entryCount int64
		if err := db.Raw("SELECT COUNT(1) FROM time_entries WHERE user_id = ?", marcoID).Row().Scan(&entryCount); err == nil && entryCount > 0 {
			fmt.Println("time entries already seeded, skipping")
			return
		}

		// one plain shift and one with overtime and travel, both awaiting review
		entries := []struct {
			WorkDate string
			ST       string
			OT       string
			STTravel string
			Total    string
			Regular  string
			Overtime string
			Pay      string
		}{
			{"2026-08-24", "8.00", "0.00", "0.00", "8.00", "8.00", "0.00", "308.00"},
			{"2026-08-25", "8.00", "2.00", "1.00", "11.00", "9.00", "2.00", "448.50"},
		}

		for _, e := range entries {
			if err := db.Exec(
				`INSERT INTO time_entries
					(user_id, job_id, work_date, break_minutes,
					 straight_time, straight_time_travel, overtime, overtime_travel, double_time, double_time_travel,
					 total_hours, regular_hours, overtime_hours,
					 applied_regular_rate, applied_travel_rate, total_pay,
					 status, work_description, version, created_at, updated_at)
				 VALUES (?, ?, ?, 30, ?, ?, ?, 0, 0, 0, ?, ?, ?, '38.50', '25.00', ?, 'completed', 'panel rough-in', 1, now(), now())`,
				marcoID, jobID, e.WorkDate, e.ST, e.STTravel, e.OT, e.Total, e.Regular, e.Overtime, e.Pay).Error; err != nil {
				log.Fatalf("failed to insert time entry: %v", err)
			}
		}

		fmt.Println("Seeded sample time entries for:", "marco@wattline.test")
	},
}
