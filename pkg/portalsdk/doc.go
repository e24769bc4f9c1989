/*
Package portalsdk is the client for the payslip API that sits behind the
portal. The API authenticates browsers with a server-managed session cookie;
this package never inspects that cookie, it only carries it.

# SDKClient vs Session

  - SDKClient knows the API base URL and builds the login/logout navigation
    URLs. It holds no credentials.
  - Session is one browser's credentialed view of the API. It forwards the
    browser's cookies on every request, the way a browser does for
    credentialed requests.

Create one SDKClient per process and one Session per incoming request:

	client := portalsdk.NewSDKClient("https://api.example.com")

	func handler(w http.ResponseWriter, r *http.Request) {
		session := client.NewSessionFromRequest(r)

		status := session.CheckAuth(r.Context())
		if !status.IsAuthenticated {
			http.Redirect(w, r, client.LoginURL(r.URL.RequestURI()), http.StatusFound)
			return
		}
		...
	}

# Error Handling

The two operations fail differently on purpose:

  - CheckAuth never returns an error. Any transport failure, non-2xx answer
    or malformed body is logged and reported as "not authenticated".
    CurrentUser exposes the same call with its error for diagnostics.
  - SendPayslipToEmail returns transport errors to the caller. An HTTP
    answer, whatever its status, is returned as-is; use CheckResponse to turn
    a non-2xx answer into an *APIError.

# Forms

FormData builds the multipart body for SendPayslipToEmail:

	form := portalsdk.NewFormData().
		Add("email", "alex@example.com").
		AddFile("payslip", "payslip.pdf", "application/pdf", file)

	resp, err := session.SendPayslipToEmail(ctx, form)
	if err != nil {
		return err // network trouble
	}
	defer resp.Body.Close()
	if err := portalsdk.CheckResponse(resp); err != nil {
		return err // the API said no
	}

# Thread Safety

SDKClient is safe for concurrent use once configured. A Session is
immutable after creation and may be shared, though it normally lives for a
single request.
*/
package portalsdk
