package embed

// TweetGenerator produces the embed markup for a validated tweet status URL.
// Implementations must escape the URL themselves.
type TweetGenerator func(tweetURL string) string

// DefaultTweetHTML renders a blockquote that the platform widget script upgrades
// on the client. Replies are shown without their conversation.
func DefaultTweetHTML(tweetURL string) string {
	return `<div class="embed-tweet"><blockquote class="twitter-tweet" data-conversation="none"><a href="` +
		escape(tweetURL) + `" rel="nofollow"></a></blockquote></div>`
}
