package email

import "fmt"

const otpSubject = "Your Login Code - Adaptive Quiz Learner"

// OTPBody renders the login-code email.
func OTPBody(code string) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Adaptive Quiz Learner</h2>
  <p>Hello,</p>
  <p>Your one-time login code is:</p>
  <div style="background-color: #f8f9fa; padding: 20px; text-align: center; margin: 20px 0;">
    <h1 style="font-size: 36px; margin: 0; letter-spacing: 5px;">%s</h1>
  </div>
  <p><strong>Important:</strong></p>
  <ul>
    <li>This code is valid for 10 minutes only</li>
    <li>Do not share this code with anyone</li>
  </ul>
  <p>If you didn't request this code, please ignore this email.</p>
</div>`, code)
}

// OTPSubject is the subject line for login-code mail.
func OTPSubject() string {
	return otpSubject
}

const welcomeSubject = "Welcome to Adaptive Quiz Learner"

// WelcomeBody renders the mail sent when an administrator registers a new
// student account.
func WelcomeBody(name string) string {
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Adaptive Quiz Learner</h2>
  <p>Hello %s,</p>
  <p>An account has been created for you on Adaptive Quiz Learner, your Class 6 Biology practice companion.</p>
  <p>To get started, log in with your email address. We will send you a one-time code each time, so there is no password to remember.</p>
  <p>Your first quiz covers every topic and helps us learn where you need the most practice. After that, each quiz adapts to you.</p>
  <p>Happy learning!</p>
</div>`, name)
}

// WelcomeSubject is the subject line for account-created mail.
func WelcomeSubject() string {
	return welcomeSubject
}
