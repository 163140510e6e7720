package router

// Keyword tables matched against trimmed message text, exact match only.
// Route priority is fixed: dynamic link, APK template, reset guides, media,
// then the start command. The first matching route wins.
var (
	dynamicKeywords = []string{
		"地址", "最新地址", "链接", "最新链接",
		"苹果地址", "苹果链接", "苹果下载地址", "苹果下载链接",
		"ios链接", "最新苹果链接",
		"link", "/link", "/start_check",
	}

	apkKeywords = []string{
		"安卓地址", "安卓下载地址", "安卓链接", "安卓下载链接",
		"最新安卓链接", "apk", "/apk",
	}

	androidGuideKeywords = []string{"安卓重置", "安卓重置教程", "android reset"}
	iosGuideKeywords     = []string{"苹果重置", "ios重置", "ios reset"}

	mediaKeywords = []string{"教程", "视频教程", "/video"}

	startKeywords = []string{"/start", "/help", "help"}
)

// Static informational replies.
const (
	androidGuideText = "Android reset guide:\n" +
		"1. Open Settings and choose Apps.\n" +
		"2. Find the app, clear its storage and cache.\n" +
		"3. Reinstall from the latest APK link (send \"apk\" to get it).\n" +
		"4. Sign in again with your existing account."

	iosGuideText = "iOS reset guide:\n" +
		"1. Delete the app from your home screen.\n" +
		"2. Restart the device.\n" +
		"3. Reinstall from the latest address (send \"link\" to get it).\n" +
		"4. Sign in again with your existing account."

	startText = "Hi! I can fetch the latest addresses for you.\n" +
		"Send \"link\" for the current download address,\n" +
		"\"apk\" for the Android package,\n" +
		"or \"help\" to see this message again."
)
