package validation

// CustomMessage returns per-tag messages for fields whose generic message
// would be unclear. Field is the JSON name.
func CustomMessage(field string) map[string]string {
	var customValidationMessages = map[string]map[string]string{
		"email": {
			"required": "email is required",
			"email":    "email must be a valid email address",
		},
		"username": {
			"required": "username is required",
			"username": "username must start with a letter and contain only letters, digits, dots or underscores",
		},
		"password": {
			"required": "password is required",
			"min":      "password must be at least 6 characters",
			"max":      "password must be at most 32 characters",
		},
		"CarId": {
			"numeric": "CarId must be 8 digits",
			"len":     "CarId must be 8 digits",
		},
		"DriverId": {
			"numeric": "DriverId must be 8 digits",
			"len":     "DriverId must be 8 digits",
		},
		"PowerType": {
			"oneof": "PowerType must be one of electric, hybrid, fuel",
		},
		"Gender": {
			"oneof": "Gender must be one of male, female, other",
		},
	}
	return customValidationMessages[field]
}
