package view

type LoginPage struct {
	Email         string
	ReturnTo      string
	Errors        FieldErrors
	Message       string
	GoogleEnabled bool
}

type SignupPage struct {
	Email         string
	Name          string
	ReturnTo      string
	Errors        FieldErrors
	GoogleEnabled bool
}
