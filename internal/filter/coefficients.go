// internal/filter/coefficients.go
package filter

// Coefficient tables for a 100 kHz input stream decimated by 10.
// Each IIR row is a 10th-order bandpass centred on one carrier in Frequencies.

// FIRCoefficients is the anti-alias low-pass applied before decimation.
var FIRCoefficients = [FIRTapCount]float64{
	6.3536354866876830e-04, 6.0819331227618758e-04, 5.1686902749145777e-04,
	3.4863476412320759e-04, 9.0970145666490485e-05, -2.6013348499733977e-04,
	-6.9113201237783293e-04, -1.1636939136330157e-03, -1.6118557625036021e-03,
	-1.9455697539817289e-03, -2.0615266547871075e-03, -1.8606534819201439e-03,
	-1.2700955552915063e-03, -2.6610384649516049e-04, 1.1066405062375218e-03,
	2.7238875057424570e-03, 4.3827874873925013e-03, 5.8173566216966838e-03,
	6.7286366879234167e-03, 6.8272100805459425e-03, 5.8832490071413189e-03,
	3.7772815455755565e-03, 5.4373527845984399e-04, -3.6006507470023436e-03,
	-8.2501610536106201e-03, -1.2829327634690009e-02, -1.6638812392493308e-02,
	-1.8924891946279925e-02, -1.8965758131617549e-02, -1.6164784711183367e-02,
	-1.0139023184532614e-02, -7.9083828812502024e-04, 1.1648073345203356e-02,
	2.6608113314638429e-02, 4.3212309435229891e-02, 6.0344682425207186e-02,
	7.6750218817119298e-02, 9.1155872838272686e-02, 1.0239892938244033e-01,
	1.0954768753648120e-01, 1.1200000000000000e-01, 1.0954768753648120e-01,
	1.0239892938244033e-01, 9.1155872838272686e-02, 7.6750218817119298e-02,
	6.0344682425207186e-02, 4.3212309435229891e-02, 2.6608113314638429e-02,
	1.1648073345203356e-02, -7.9083828812502024e-04, -1.0139023184532614e-02,
	-1.6164784711183367e-02, -1.8965758131617549e-02, -1.8924891946279925e-02,
	-1.6638812392493308e-02, -1.2829327634690009e-02, -8.2501610536106201e-03,
	-3.6006507470023436e-03, 5.4373527845984399e-04, 3.7772815455755565e-03,
	5.8832490071413189e-03, 6.8272100805459425e-03, 6.7286366879234167e-03,
	5.8173566216966838e-03, 4.3827874873925013e-03, 2.7238875057424570e-03,
	1.1066405062375218e-03, -2.6610384649516049e-04, -1.2700955552915063e-03,
	-1.8606534819201439e-03, -2.0615266547871075e-03, -1.9455697539817289e-03,
	-1.6118557625036021e-03, -1.1636939136330157e-03, -6.9113201237783293e-04,
	-2.6013348499733977e-04, 9.0970145666490485e-05, 3.4863476412320759e-04,
	5.1686902749145777e-04, 6.0819331227618758e-04, 6.3536354866876830e-04,
}

// IIRACoefficients are the denominator taps a1..a10 (a0 = 1 is implied).
var IIRACoefficients = [ChannelCount][IIRATapCount]float64{
	{
		-5.9637727070164033e+00, 1.9125339333078255e+01, -4.0341474540744194e+01,
		6.1537466875368864e+01, -7.0019717951472245e+01, 6.0298814235238922e+01,
		-3.8733792862566332e+01, 1.7993533279581079e+01, -5.4979061224867714e+00,
		9.0332828533799669e-01,
	},
	{
		-4.6377947119071452e+00, 1.3502215749461570e+01, -2.6155952405269751e+01,
		3.8589668330738334e+01, -4.3038990303252618e+01, 3.7812927599537105e+01,
		-2.5113598088113765e+01, 1.2703182701888075e+01, -4.2755083391143422e+00,
		9.0332828533800047e-01,
	},
	{
		-3.0591317915750920e+00, 8.6417489609637457e+00, -1.4278790253808829e+01,
		2.1302268283304279e+01, -2.2193853972079200e+01, 2.0873499791105413e+01,
		-1.3709764520609372e+01, 8.1303553577931549e+00, -2.8201643879900469e+00,
		9.0332828533799914e-01,
	},
	{
		-1.4071749185996754e+00, 5.6904141470697507e+00, -5.7374718273676271e+00,
		1.1958028362868889e+01, -8.5435280598354506e+00, 1.1717345583835939e+01,
		-5.5088290876998514e+00, 5.3536787286077505e+00, -1.2972519209655555e+00,
		9.0332828533799692e-01,
	},
	{
		8.2010906117760374e-01, 5.1673756579268622e+00, 3.2580350909220956e+00,
		1.0392903763919200e+01, 4.8101776408669146e+00, 1.0183724507092519e+01,
		3.1282000712126798e+00, 4.8615933365572053e+00, 7.5604535083145064e-01,
		9.0332828533800169e-01,
	},
	{
		2.7080869856154490e+00, 7.8319071217995537e+00, 1.2201607990980708e+01,
		1.8651500443681556e+01, 1.8758157568004464e+01, 1.8276088095998929e+01,
		1.1715361303018827e+01, 7.3684394621253011e+00, 2.4965418284511713e+00,
		9.0332828533799669e-01,
	},
	{
		4.9479835250075865e+00, 1.4691607003177580e+01, 2.9082414772101004e+01,
		4.3179839108869231e+01, 4.8440791644688744e+01, 4.2310703962394200e+01,
		2.7923434247706322e+01, 1.3822186510470948e+01, 4.5614664160654126e+00,
		9.0332828533799459e-01,
	},
	{
		6.1701893352279829e+00, 2.0127225876810328e+01, 4.2974193398071662e+01,
		6.5958045321253437e+01, 7.5230437667866596e+01, 6.4630411355739867e+01,
		4.1261591079244141e+01, 1.8936128791950544e+01, 5.6881982915180354e+00,
		9.0332828533799925e-01,
	},
	{
		7.4092912870072407e+00, 2.6857944460290131e+01, 6.1578787811202240e+01,
		9.8258255839887298e+01, 1.1359460153696294e+02, 9.6280452143026054e+01,
		5.9124742025776371e+01, 2.5268527576524200e+01, 6.8305064480743063e+00,
		9.0332828533799947e-01,
	},
	{
		8.5743055776347745e+00, 3.4306584753117932e+01, 8.4035290411037238e+01,
		1.3928510844056856e+02, 1.6305115418161682e+02, 1.3648147221895846e+02,
		8.0686288623300157e+01, 3.2276361903872299e+01, 7.9045143816245220e+00,
		9.0332828533800280e-01,
	},
}

// IIRBCoefficients are the numerator taps b0..b10.
var IIRBCoefficients = [ChannelCount][IIRBTapCount]float64{
	{
		9.0928661148193611e-10, 0.0000000000000000e+00, -4.5464330574096802e-09,
		0.0000000000000000e+00, 9.0928661148193603e-09, 0.0000000000000000e+00,
		-9.0928661148193603e-09, 0.0000000000000000e+00, 4.5464330574096802e-09,
		0.0000000000000000e+00, -9.0928661148193611e-10,
	},
	{
		9.0928661148195566e-10, 0.0000000000000000e+00, -4.5464330574097786e-09,
		0.0000000000000000e+00, 9.0928661148195572e-09, 0.0000000000000000e+00,
		-9.0928661148195572e-09, 0.0000000000000000e+00, 4.5464330574097786e-09,
		0.0000000000000000e+00, -9.0928661148195566e-10,
	},
	{
		9.0928661148191140e-10, 0.0000000000000000e+00, -4.5464330574095569e-09,
		0.0000000000000000e+00, 9.0928661148191138e-09, 0.0000000000000000e+00,
		-9.0928661148191138e-09, 0.0000000000000000e+00, 4.5464330574095569e-09,
		0.0000000000000000e+00, -9.0928661148191140e-10,
	},
	{
		9.0928661148212833e-10, 0.0000000000000000e+00, -4.5464330574106413e-09,
		0.0000000000000000e+00, 9.0928661148212827e-09, 0.0000000000000000e+00,
		-9.0928661148212827e-09, 0.0000000000000000e+00, 4.5464330574106413e-09,
		0.0000000000000000e+00, -9.0928661148212833e-10,
	},
	{
		9.0928661148195421e-10, 0.0000000000000000e+00, -4.5464330574097711e-09,
		0.0000000000000000e+00, 9.0928661148195423e-09, 0.0000000000000000e+00,
		-9.0928661148195423e-09, 0.0000000000000000e+00, 4.5464330574097711e-09,
		0.0000000000000000e+00, -9.0928661148195421e-10,
	},
	{
		9.0928661148191626e-10, 0.0000000000000000e+00, -4.5464330574095809e-09,
		0.0000000000000000e+00, 9.0928661148191618e-09, 0.0000000000000000e+00,
		-9.0928661148191618e-09, 0.0000000000000000e+00, 4.5464330574095809e-09,
		0.0000000000000000e+00, -9.0928661148191626e-10,
	},
	{
		9.0928661148210362e-10, 0.0000000000000000e+00, -4.5464330574105181e-09,
		0.0000000000000000e+00, 9.0928661148210362e-09, 0.0000000000000000e+00,
		-9.0928661148210362e-09, 0.0000000000000000e+00, 4.5464330574105181e-09,
		0.0000000000000000e+00, -9.0928661148210362e-10,
	},
	{
		9.0928661148193291e-10, 0.0000000000000000e+00, -4.5464330574096644e-09,
		0.0000000000000000e+00, 9.0928661148193289e-09, 0.0000000000000000e+00,
		-9.0928661148193289e-09, 0.0000000000000000e+00, 4.5464330574096644e-09,
		0.0000000000000000e+00, -9.0928661148193291e-10,
	},
	{
		9.0928661148185877e-10, 0.0000000000000000e+00, -4.5464330574092939e-09,
		0.0000000000000000e+00, 9.0928661148185877e-09, 0.0000000000000000e+00,
		-9.0928661148185877e-09, 0.0000000000000000e+00, 4.5464330574092939e-09,
		0.0000000000000000e+00, -9.0928661148185877e-10,
	},
	{
		9.0928661148189176e-10, 0.0000000000000000e+00, -4.5464330574094585e-09,
		0.0000000000000000e+00, 9.0928661148189169e-09, 0.0000000000000000e+00,
		-9.0928661148189169e-09, 0.0000000000000000e+00, 4.5464330574094585e-09,
		0.0000000000000000e+00, -9.0928661148189176e-10,
	},
}
