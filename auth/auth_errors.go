package auth

// Messages shown to the user when login fails before or after the exchange.
const (
	MissingCredentialsMessage = "Username and password are required"
	LoginFailedMessage        = "Login failed"
	InvalidResponseMessage    = "Invalid login response from server"
)
