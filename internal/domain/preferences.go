package domain

// Preferences is what the user is looking for. Loaded from config and passed
// explicitly to the scorer.
type Preferences struct {
	RequiredSkills     []string  `yaml:"required_skills" json:"required_skills"`
	NiceToHaveSkills   []string  `yaml:"nice_to_have_skills" json:"nice_to_have_skills"`
	MinSalary          float64   `yaml:"min_salary" json:"min_salary" validate:"gte=0"`
	TargetSalary       float64   `yaml:"target_salary" json:"target_salary" validate:"gte=0"`
	PreferredLocations []string  `yaml:"preferred_locations" json:"preferred_locations"`
	ExperienceLevel    Seniority `yaml:"experience_level" json:"experience_level"`
	DesiredBenefits    []string  `yaml:"desired_benefits" json:"desired_benefits"`
}
